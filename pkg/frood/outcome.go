package frood

import "net/http"

// Outcome tells the dispatcher what to do after an action returns. It is one of
// Rendered, Forward or Redirect; a nil Outcome means Rendered.
type Outcome interface {
	outcome()
}

// Rendered renders the values the action assigned with the controller's renderer.
type Rendered struct{}

// Forward dispatches another request in place of the current one.
type Forward struct {
	Request *Request
}

// Redirect answers with a redirect to URL.
type Redirect struct {
	URL    string
	Status int
}

func (Rendered) outcome() {}
func (Forward) outcome()  {}
func (Redirect) outcome() {}

// StatusCode returns the redirect status, 302 Found when unset
func (r Redirect) StatusCode() int {
	if r.Status == 0 {
		return http.StatusFound
	}
	return r.Status
}
