package section

import (
	"context"

	"github.com/aethra/misight/internal/backend"
	apperrors "github.com/aethra/misight/internal/errors"
	"github.com/aethra/misight/internal/logger"
	"github.com/aethra/misight/internal/schema"
	"golang.org/x/sync/errgroup"
)

// ErrNotConfirmed is returned by Delete when the user has not confirmed
var ErrNotConfirmed = apperrors.NewBadRequestError("deletion must be confirmed")

// View is everything a section page needs. It is always returned; Err carries a failed
// collection fetch, in which case Collection is empty.
type View struct {
	Collection schema.Collection
	Lookups    Lookups
	Fields     []schema.Field
	Columns    []schema.Column
	Err        error
	// LookupErrs are failed lookup fetches; options and joins fall back to raw ids
	LookupErrs map[string]error
}

// Controller owns fetch-all, create, update and delete of one entity type
type Controller struct {
	def         Definition
	collections *backend.Collections
	log         logger.Logger
}

// NewController creates the controller of def
func NewController(def Definition, collections *backend.Collections, log logger.Logger) *Controller {
	return &Controller{def: def, collections: collections, log: log}
}

// Definition returns the section definition
func (c *Controller) Definition() Definition {
	return c.def
}

// Load fetches the collection and, in parallel, every lookup
func (c *Controller) Load(ctx context.Context) *View {
	return c.load(ctx, func(ctx context.Context) (schema.Collection, error) {
		return c.collections.Load(ctx, c.def.Resource)
	})
}

// LoadRange is Load restricted to records dated between start and end (inclusive, ISO dates)
func (c *Controller) LoadRange(ctx context.Context, start, end string) *View {
	if c.def.DateField == "" {
		return c.failed(apperrors.NewBadRequestError(c.def.Title + " cannot be filtered by date"))
	}
	return c.load(ctx, func(ctx context.Context) (schema.Collection, error) {
		return c.collections.Client().ListByDateRange(ctx, c.def.Resource, start, end)
	})
}

func (c *Controller) failed(err error) *View {
	return &View{
		Collection: schema.Collection{},
		Lookups:    Lookups{},
		Fields:     c.def.Fields(Lookups{}),
		Columns:    c.def.Columns(Lookups{}),
		Err:        err,
	}
}

func (c *Controller) load(ctx context.Context, fetch func(context.Context) (schema.Collection, error)) *View {
	var (
		collection schema.Collection
		mainErr    error
		lookups    = make([]schema.Collection, len(c.def.Lookups))
		lookupErrs = make([]error, len(c.def.Lookups))
	)

	// Each fetch records its own outcome; one failure does not cancel the others
	var g errgroup.Group
	g.Go(func() error {
		collection, mainErr = fetch(ctx)
		return nil
	})
	for i, resource := range c.def.Lookups {
		i, resource := i, resource
		g.Go(func() error {
			lookups[i], lookupErrs[i] = c.collections.Load(ctx, resource)
			return nil
		})
	}
	_ = g.Wait()

	view := &View{Lookups: make(Lookups, len(c.def.Lookups))}
	for i, resource := range c.def.Lookups {
		if err := lookupErrs[i]; err != nil {
			if view.LookupErrs == nil {
				view.LookupErrs = make(map[string]error)
			}
			view.LookupErrs[resource] = err
			c.log.Warnw("lookup fetch failed", "section", c.def.Key, "lookup", resource, "error", err)
			continue
		}
		view.Lookups[resource] = lookups[i]
	}
	view.Fields = c.def.Fields(view.Lookups)
	view.Columns = c.def.Columns(view.Lookups)

	if mainErr != nil {
		if ctx.Err() == nil {
			c.log.Errorw("collection fetch failed", "section", c.def.Key, "error", mainErr)
		}
		view.Err = mainErr
		view.Collection = schema.Collection{}
		return view
	}
	view.Collection = collection
	return view
}

// Find returns the record with id, from the loaded collection or else from the backend
func (c *Controller) Find(ctx context.Context, view *View, id string) (schema.Record, error) {
	if view != nil {
		if rec, ok := view.Collection.Find(id); ok {
			return rec, nil
		}
	}
	rec, err := c.collections.Client().Get(ctx, c.def.Resource, id)
	if apperrors.IsNotFound(err) {
		return nil, apperrors.NewNotFoundError(c.def.Singular)
	}
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, apperrors.NewNotFoundError(c.def.Singular)
	}
	return rec, nil
}

// Add creates a record, then invalidates and refetches the collection
func (c *Controller) Add(ctx context.Context, values schema.Values) error {
	if _, err := c.collections.Client().Create(ctx, c.def.Resource, values); err != nil {
		c.log.Infow("create rejected", "section", c.def.Key, "error", err)
		return err
	}
	c.log.Infow("record created", "section", c.def.Key)
	c.refresh(ctx)
	return nil
}

// Edit updates record id, then invalidates and refetches the collection
func (c *Controller) Edit(ctx context.Context, id string, values schema.Values) error {
	if _, err := c.collections.Client().Update(ctx, c.def.Resource, id, values); err != nil {
		c.log.Infow("update rejected", "section", c.def.Key, "id", id, "error", err)
		return err
	}
	c.log.Infow("record updated", "section", c.def.Key, "id", id)
	c.refresh(ctx)
	return nil
}

// Delete removes record id. Nothing is sent to the backend unless confirmed is true.
func (c *Controller) Delete(ctx context.Context, id string, confirmed bool) error {
	if !confirmed {
		return ErrNotConfirmed
	}
	if err := c.collections.Client().Delete(ctx, c.def.Resource, id); err != nil {
		c.log.Infow("delete rejected", "section", c.def.Key, "id", id, "error", err)
		return err
	}
	c.log.Infow("record deleted", "section", c.def.Key, "id", id)
	c.refresh(ctx)
	return nil
}

// refresh replaces the cached collection after a successful mutation. A failed refetch is
// left for the next page load to report.
func (c *Controller) refresh(ctx context.Context) {
	if _, err := c.collections.Reload(ctx, c.def.Resource); err != nil {
		c.log.Warnw("refetch after mutation failed", "section", c.def.Key, "error", err)
	}
}

// Export downloads the section's spreadsheet
func (c *Controller) Export(ctx context.Context) (*backend.Download, error) {
	if !c.def.Exportable {
		return nil, apperrors.NewNotFoundError(c.def.Title + " export")
	}
	return c.collections.Client().Export(ctx, c.def.Resource)
}

// Count returns the number of records, from cache when possible
func (c *Controller) Count(ctx context.Context) (int, error) {
	col, err := c.collections.Load(ctx, c.def.Resource)
	if err != nil {
		return 0, err
	}
	return len(col), nil
}
