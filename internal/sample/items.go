package sample

import (
	"net/http"

	"github.com/dframe-go/dframe/middleware"
	"github.com/dframe-go/dframe/pkg/store"
	"github.com/dframe-go/dframe/pkg/validation"
	"github.com/dframe-go/dframe/router"
)

// Item is a catalogue entry
type Item struct {
	Title    string  `json:"title" form:"title" validate:"required,max=255"`
	Price    float64 `json:"price" form:"price" validate:"gte=0"`
	Quantity int     `json:"quantity" form:"quantity" validate:"gte=0"`
}

type itemView struct {
	ID string `json:"id"`
	Item
}

// ItemController serves the items API. Writes require authentication.
type ItemController struct {
	Items     store.Store[Item]
	Validator *validation.Validator
}

// Routes implements router.Controller
func (ic *ItemController) Routes() []router.Attribute {
	write := []string{middleware.AuthName}
	return []router.Attribute{
		{Path: "/items", API: true, Name: "api.items.index", Handler: ic.index},
		{Path: "/items/{id}", API: true, Name: "api.items.show", Handler: ic.show},
		{Path: "/items", Method: "POST", API: true, Name: "api.items.store", Middleware: write, Handler: ic.store},
		{Path: "/items/{id}", Method: "PUT|PATCH", API: true, Name: "api.items.update", Middleware: write, Handler: ic.update},
		{Path: "/items/{id}", Method: "DELETE", API: true, Name: "api.items.destroy", Middleware: write, Handler: ic.destroy},
	}
}

func (ic *ItemController) index(c *router.Context) (any, error) {
	entries, err := ic.Items.List(c.Request().Context())
	if err != nil {
		return nil, err
	}
	views := make([]itemView, 0, len(entries))
	for _, e := range entries {
		views = append(views, itemView{ID: e.ID, Item: e.Value})
	}
	return map[string]any{"items": views}, nil
}

func (ic *ItemController) show(c *router.Context, id string) (any, error) {
	it, err := ic.Items.Get(c.Request().Context(), id)
	if err != nil {
		return nil, err
	}
	return map[string]any{"item": itemView{ID: id, Item: it}}, nil
}

func (ic *ItemController) store(c *router.Context) (any, error) {
	var in Item
	if err := ic.Validator.BindAndValidate(c.Request(), &in); err != nil {
		return nil, err
	}
	id, err := ic.Items.Create(c.Request().Context(), in)
	if err != nil {
		return nil, err
	}
	return map[string]any{"code": http.StatusCreated, "item": itemView{ID: id, Item: in}}, nil
}

func (ic *ItemController) update(c *router.Context, id string) (any, error) {
	var in Item
	if err := ic.Validator.BindAndValidate(c.Request(), &in); err != nil {
		return nil, err
	}
	if err := ic.Items.Update(c.Request().Context(), id, in); err != nil {
		return nil, err
	}
	return map[string]any{"item": itemView{ID: id, Item: in}}, nil
}

func (ic *ItemController) destroy(c *router.Context, id string) (any, error) {
	if err := ic.Items.Delete(c.Request().Context(), id); err != nil {
		return nil, err
	}
	return map[string]any{"deleted": id}, nil
}
