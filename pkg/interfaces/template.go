package interfaces

import (
	"io"
)

// TemplateRenderer is the rendering collaborator the publisher hands pages
// to. Hosts bring their own engine; press never assumes a template syntax.
type TemplateRenderer interface {
	Render(name string, data any, out ...io.Writer) (string, error)
	RenderTemplate(name string, data any, out ...io.Writer) (string, error)
	RenderString(templateContent string, data any, out ...io.Writer) (string, error)
	RegisterFilter(name string, fn func(input any, param any) (any, error)) error
	GlobalContext(data any) error
}
