package echoapi

import (
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"sort"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/masomo-resources/core"
	"github.com/trezcool/masomo-resources/storage"
)

var listOrderingFields = []string{"name", "size", "modified_at"}

type resourceApi struct {
	store         storage.Store
	logger        core.Logger
	maxUploadSize int64
	validate      *validator.Validate
	translator    ut.Translator
}

func registerResourceAPI(g *echo.Group, jwt echo.MiddlewareFunc, deps Deps) {
	api := resourceApi{
		store:         deps.Store,
		logger:        deps.Logger,
		maxUploadSize: deps.Conf.Server.MaxUploadSize,
		validate:      deps.Validate,
		translator:    deps.Translator,
	}

	rg := g.Group("/resources")

	// un-authed endpoints
	rg.GET("/:name", api.retrieve)
	rg.HEAD("/:name", api.retrieve)

	// admin endpoints
	admin := adminMiddleware(RoleResourceManager)
	rg.GET("", api.query, jwt, admin)
	rg.PUT("/:name", api.upload, jwt, admin)
	rg.DELETE("/:name", api.destroy, jwt, admin)
}

// name returns the unescaped `:name` path param, validated as a resource name.
func (api *resourceApi) name(ctx echo.Context) (string, error) {
	name, err := url.PathUnescape(ctx.Param("name"))
	if err != nil {
		return "", core.NewValidationError(nil, core.FieldError{Field: "name", Error: "invalid escaping"})
	}
	if err = core.ValidateVar(api.validate, api.translator, "name", name, "required,resname"); err != nil {
		return "", err
	}
	return name, nil
}

// Handlers

func (api *resourceApi) retrieve(ctx echo.Context) error {
	name, err := api.name(ctx)
	if err != nil {
		return err
	}

	content, info, err := api.store.Open(ctx.Request().Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("resource %q not found", name))
		}
		return errors.Wrapf(err, "opening resource %q", name)
	}
	defer func() { _ = content.Close() }()

	header := ctx.Response().Header()
	header.Set(echo.HeaderContentType, info.MimeType)
	header.Set(echo.HeaderContentDisposition, mime.FormatMediaType("inline", map[string]string{"filename": name}))
	// ServeContent sets Content-Length and handles HEAD and Range requests.
	http.ServeContent(ctx.Response(), ctx.Request(), name, info.ModTime, content)
	return nil
}

func (api *resourceApi) query(ctx echo.Context) error {
	infos, err := api.store.List(ctx.Request().Context())
	if err != nil {
		return errors.Wrap(err, "listing resources")
	}

	ordering := new(Ordering)
	ordering.Bind(ctx, listOrderingFields...)
	sortInfos(infos, ordering.Orderings)

	return ctx.JSON(http.StatusOK, infos)
}

func (api *resourceApi) upload(ctx echo.Context) error {
	name, err := api.name(ctx)
	if err != nil {
		return err
	}

	req := ctx.Request()
	if api.maxUploadSize > 0 {
		if req.ContentLength > api.maxUploadSize {
			return errHttpTooLarge
		}
		req.Body = http.MaxBytesReader(ctx.Response(), req.Body, api.maxUploadSize)
	}

	info, err := api.store.Put(req.Context(), name, req.Body)
	if err != nil {
		if errors.Is(err, storage.ErrInvalidName) {
			return core.NewValidationError(nil, core.FieldError{Field: "name", Error: err.Error()})
		}
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return errHttpTooLarge
		}
		return errors.Wrapf(err, "storing resource %q", name)
	}

	api.logger.Info(fmt.Sprintf("resource %q stored", name), map[string]interface{}{
		"size": info.Size,
		"mime": info.MimeType,
	})
	return ctx.JSON(http.StatusCreated, info)
}

func (api *resourceApi) destroy(ctx echo.Context) error {
	name, err := api.name(ctx)
	if err != nil {
		return err
	}
	if err = api.store.Delete(ctx.Request().Context(), name); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return echo.NewHTTPError(http.StatusNotFound, fmt.Sprintf("resource %q not found", name))
		}
		return errors.Wrapf(err, "deleting resource %q", name)
	}
	return ctx.NoContent(http.StatusNoContent)
}

func sortInfos(infos []storage.Info, orderings []OrderingField) {
	if len(orderings) == 0 {
		return
	}
	sort.SliceStable(infos, func(i, j int) bool {
		a, b := infos[i], infos[j]
		for _, ord := range orderings {
			var cmp int
			switch ord.Field {
			case "name":
				cmp = compareStrings(a.Name, b.Name)
			case "size":
				cmp = compareInts(a.Size, b.Size)
			case "modified_at":
				cmp = compareInts(a.ModTime.UnixNano(), b.ModTime.UnixNano())
			}
			if cmp == 0 {
				continue
			}
			if ord.Ascending {
				return cmp < 0
			}
			return cmp > 0
		}
		return false
	})
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func compareInts(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}
