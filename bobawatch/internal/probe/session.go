package probe

import "context"

// Element is a located DOM element.
type Element interface {
	// Attribute returns the attribute value and whether it is present.
	Attribute(ctx context.Context, name string) (string, bool, error)
	Visible(ctx context.Context) (bool, error)
	Click(ctx context.Context) error
}

// Page is the slice of browser capability the probe needs.
type Page interface {
	Navigate(ctx context.Context, url string) error
	// WaitLoad blocks until the load event fires.
	WaitLoad(ctx context.Context) error
	Title(ctx context.Context) (string, error)
	Reload(ctx context.Context) error
	// Lookup evaluates xpath once without waiting. An absent element is
	// (nil, false, nil); error is reserved for driver faults.
	Lookup(ctx context.Context, xpath string) (Element, bool, error)
	Screenshot(ctx context.Context) ([]byte, error)
	HTML(ctx context.Context) (string, error)
}

// Session is an acquired browser page that owns its resources.
type Session interface {
	Page
	// Close releases the page, the browser and any launched process.
	Close() error
}

// DriverFactory acquires sessions. Each run profile supplies one.
type DriverFactory interface {
	Open(ctx context.Context) (Session, error)
}

// DriverFactoryFunc adapts a function to DriverFactory.
type DriverFactoryFunc func(ctx context.Context) (Session, error)

func (f DriverFactoryFunc) Open(ctx context.Context) (Session, error) { return f(ctx) }
