// Package notice defines Notice, the payload handed to signal listeners.
//
// A Notice bundles the kind of event, the entity that triggered it and any
// auxiliary data:
//
//	n := notice.New("afterDelete",
//		notice.WithTarget(model),
//		notice.WithContext(notice.NewContext(
//			notice.Entry{Key: "deletedDocuments", Value: docs},
//			notice.Entry{Key: "options", Value: opts},
//		)),
//	)
//	afterDelete.Emit(n)
package notice

import (
	"errors"

	"github.com/gyaneshwarpardhi/noticed/internal/projection"
)

// TypeName is the registry name under which Notice is projectable.
const TypeName projection.TypeName = "notice"

// ErrMissingType is returned by Validate for a notice without a type.
var ErrMissingType = errors.New("notice type is required")

func init() {
	projection.Types.Register(string(TypeName), func() projection.Projector { return &Notice{} })
}

// Notice is an event payload. All fields may be changed after construction;
// projections always read their current values.
type Notice struct {
	// Type identifies the event kind, e.g. "afterDelete".
	Type string
	// Target is the entity that triggered the event. The notice does not
	// own it; nil means no target. A target that refers back to the notice
	// cannot be encoded.
	Target any
	// Context carries auxiliary data in insertion order.
	Context Context
}

// Option configures a Notice at construction.
type Option func(*Notice)

// WithTarget sets the target reference.
func WithTarget(target any) Option {
	return func(n *Notice) { n.Target = target }
}

// WithContext sets the context.
func WithContext(c Context) Option {
	return func(n *Notice) { n.Context = c }
}

// New creates a Notice of the given type. Target defaults to nil and context
// to an empty Context; values are stored as given, without copying.
func New(typ string, opts ...Option) *Notice {
	n := &Notice{Type: typ}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Fields implements projection.Projector.
func (n *Notice) Fields() []projection.Field {
	return []projection.Field{
		{Name: "type", Value: n.Type},
		{Name: "target", Value: n.Target},
		{Name: "context", Value: n.Context},
	}
}

// ToArray projects selector into an ordered map. A nil selector projects n
// itself; a projection.Projector is projected directly; a string or
// projection.TypeName names a registered type whose fresh value is
// projected. Any other selector fails with a *projection.SelectorError.
//
// Reduce is always enabled: opts may add Skip entries but cannot turn
// reduction off.
func (n *Notice) ToArray(selector any, opts projection.Options) (*projection.Map, error) {
	src, err := projection.Resolve(selector, n, projection.Types)
	if err != nil {
		return nil, err
	}
	opts = projection.Options{Reduce: true}.Merge(opts)
	opts.Reduce = true
	return projection.Project(src, opts), nil
}

// JSONSerialize returns the projection used as the notice's wire form.
func (n *Notice) JSONSerialize() (*projection.Map, error) {
	return n.ToArray(nil, projection.Options{})
}

// Validate checks a notice received from outside the process.
func (n *Notice) Validate() error {
	if n.Type == "" {
		return ErrMissingType
	}
	return nil
}
