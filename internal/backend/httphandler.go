package backend

import (
	"context"
	"errors"
	"net/http"

	"modbridge/internal/domain"

	"github.com/danielgtaylor/huma/v2"
)

const (
	modTag    = "Mods"
	presetTag = "Presets"
)

type ModIDRequest struct {
	ModID string `path:"modID" required:"true"`
}

type PresetIDRequest struct {
	PresetID string `path:"presetID" required:"true"`
}

type EmptyRequest struct{}

type EmptyResponse struct{}

type ModListBody struct {
	Mods []domain.Mod `json:"mods"`
}

type ListModsResponse struct {
	Body *ModListBody
}

type AddModRequestBody struct {
	Title     string `json:"title"               minLength:"1"`
	Character string `json:"character,omitempty"`
	IsActive  bool   `json:"isActive,omitempty"`
}

type AddModRequest struct {
	Body *AddModRequestBody
}

type ModResponse struct {
	Body *domain.Mod
}

type ToggleBody struct {
	IsActive bool `json:"isActive"`
}

type ToggleModResponse struct {
	Body *ToggleBody
}

type PresetListBody struct {
	Presets []domain.Preset `json:"presets"`
}

type ListPresetsResponse struct {
	Body *PresetListBody
}

type PresetRequestBody struct {
	Name   string   `json:"name"`
	ModIDs []string `json:"mod_ids"`
}

type CreatePresetRequest struct {
	Body *PresetRequestBody
}

type UpdatePresetRequest struct {
	PresetID string `path:"presetID" required:"true"`
	Body     *PresetRequestBody
}

type PresetResponse struct {
	Body *domain.Preset
}

type StatsResponse struct {
	Body *domain.Stats
}

type HealthBody struct {
	Status string `json:"status"`
}

type HealthResponse struct {
	Body *HealthBody
}

// InitModHandlers registers the mod endpoints.
func InitModHandlers(api huma.API, svc *Service) {
	huma.Register(api, huma.Operation{
		OperationID: "list-mods",
		Method:      http.MethodGet,
		Path:        "/mods",
		Summary:     "List installed mods",
		Tags:        []string{modTag},
	}, func(ctx context.Context, _ *EmptyRequest) (*ListModsResponse, error) {
		mods, err := svc.ListMods(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ListModsResponse{Body: &ModListBody{Mods: mods}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "add-mod",
		Method:        http.MethodPost,
		Path:          "/mods",
		Summary:       "Register an installed mod",
		Tags:          []string{modTag},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, req *AddModRequest) (*ModResponse, error) {
		mod, err := svc.AddMod(ctx, req.Body.Title, req.Body.Character, req.Body.IsActive)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ModResponse{Body: &mod}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "toggle-mod",
		Method:      http.MethodPost,
		Path:        "/mods/{modID}/toggle",
		Summary:     "Flip a mod's active state",
		Tags:        []string{modTag},
	}, func(ctx context.Context, req *ModIDRequest) (*ToggleModResponse, error) {
		active, err := svc.ToggleModActive(ctx, req.ModID)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ToggleModResponse{Body: &ToggleBody{IsActive: active}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-mod",
		Method:      http.MethodDelete,
		Path:        "/mods/{modID}",
		Summary:     "Delete a mod",
		Tags:        []string{modTag},
	}, func(ctx context.Context, req *ModIDRequest) (*EmptyResponse, error) {
		if err := svc.DeleteMod(ctx, req.ModID); err != nil {
			return nil, toHumaError(err)
		}
		return &EmptyResponse{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "get-stats",
		Method:      http.MethodGet,
		Path:        "/stats",
		Summary:     "Installed, active and preset counts",
		Tags:        []string{modTag},
	}, func(ctx context.Context, _ *EmptyRequest) (*StatsResponse, error) {
		stats, err := svc.GetStats(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &StatsResponse{Body: &stats}, nil
	})
}

// InitPresetHandlers registers the preset endpoints.
func InitPresetHandlers(api huma.API, svc *Service) {
	huma.Register(api, huma.Operation{
		OperationID: "list-presets",
		Method:      http.MethodGet,
		Path:        "/presets",
		Summary:     "List presets",
		Tags:        []string{presetTag},
	}, func(ctx context.Context, _ *EmptyRequest) (*ListPresetsResponse, error) {
		presets, err := svc.ListPresets(ctx)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &ListPresetsResponse{Body: &PresetListBody{Presets: presets}}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID:   "create-preset",
		Method:        http.MethodPost,
		Path:          "/presets",
		Summary:       "Create a preset",
		Tags:          []string{presetTag},
		DefaultStatus: http.StatusCreated,
	}, func(ctx context.Context, req *CreatePresetRequest) (*PresetResponse, error) {
		preset, err := svc.CreatePreset(ctx, req.Body.Name, req.Body.ModIDs)
		if err != nil {
			return nil, toHumaError(err)
		}
		return &PresetResponse{Body: &preset}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "update-preset",
		Method:      http.MethodPut,
		Path:        "/presets/{presetID}",
		Summary:     "Replace a preset's name and mods",
		Tags:        []string{presetTag},
	}, func(ctx context.Context, req *UpdatePresetRequest) (*EmptyResponse, error) {
		if err := svc.UpdatePreset(ctx, req.PresetID, req.Body.Name, req.Body.ModIDs); err != nil {
			return nil, toHumaError(err)
		}
		return &EmptyResponse{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "delete-preset",
		Method:      http.MethodDelete,
		Path:        "/presets/{presetID}",
		Summary:     "Delete a preset",
		Tags:        []string{presetTag},
	}, func(ctx context.Context, req *PresetIDRequest) (*EmptyResponse, error) {
		if err := svc.DeletePreset(ctx, req.PresetID); err != nil {
			return nil, toHumaError(err)
		}
		return &EmptyResponse{}, nil
	})

	huma.Register(api, huma.Operation{
		OperationID: "apply-preset",
		Method:      http.MethodPost,
		Path:        "/presets/{presetID}/apply",
		Summary:     "Make a preset's mods the exact active set",
		Tags:        []string{presetTag},
	}, func(ctx context.Context, req *PresetIDRequest) (*EmptyResponse, error) {
		if err := svc.ApplyPreset(ctx, req.PresetID); err != nil {
			return nil, toHumaError(err)
		}
		return &EmptyResponse{}, nil
	})
}

// InitHealthHandler registers the liveness endpoint.
func InitHealthHandler(api huma.API) {
	huma.Register(api, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Liveness check",
	}, func(ctx context.Context, _ *EmptyRequest) (*HealthResponse, error) {
		return &HealthResponse{Body: &HealthBody{Status: "ok"}}, nil
	})
}

func toHumaError(err error) error {
	switch {
	case errors.Is(err, domain.ErrNotFound):
		return huma.Error404NotFound(err.Error())
	case errors.Is(err, domain.ErrValidation):
		return huma.Error422UnprocessableEntity(err.Error())
	default:
		return huma.Error500InternalServerError(err.Error())
	}
}
