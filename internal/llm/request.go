package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/tally/internal/credential"
)

// DefaultModel is used when configuration does not name a model.
const DefaultModel = "gemini-2.5-flash"

// ErrInvalidRequest is returned for requests that cannot be sent at all.
var ErrInvalidRequest = errors.New("invalid generation request")

// Part is one piece of request content: either text or a binary blob tagged
// with a MIME type.
type Part struct {
	Text     string
	MIMEType string
	Data     []byte
}

// TextPart builds a text part.
func TextPart(text string) Part {
	return Part{Text: text}
}

// BlobPart builds a binary part.
func BlobPart(data []byte, mimeType string) Part {
	return Part{Data: data, MIMEType: mimeType}
}

// IsBlob reports whether the part carries binary data.
func (p Part) IsBlob() bool {
	return p.Data != nil
}

// SchemaType names a JSON schema type understood by the provider.
type SchemaType string

// Schema types.
const (
	TypeObject  SchemaType = "OBJECT"
	TypeString  SchemaType = "STRING"
	TypeNumber  SchemaType = "NUMBER"
	TypeInteger SchemaType = "INTEGER"
)

// Schema is a provider-neutral description of the JSON the model must emit.
type Schema struct {
	Properties  map[string]*Schema
	Type        SchemaType
	Description string
	Format      string
	Enum        []string
	Required    []string
}

// Request is a single stateless generate-content call. It may be replayed
// verbatim against any credential.
type Request struct {
	// ResponseSchema, when set, asks the provider for schema-constrained JSON.
	ResponseSchema *Schema
	Model          string
	Parts          []Part
}

// Validate checks the request shape before any credential is tried.
func (r Request) Validate() error {
	if strings.TrimSpace(r.Model) == "" {
		return fmt.Errorf("%w: model is required", ErrInvalidRequest)
	}
	if len(r.Parts) == 0 {
		return fmt.Errorf("%w: at least one part is required", ErrInvalidRequest)
	}
	for i, p := range r.Parts {
		if p.IsBlob() && p.MIMEType == "" {
			return fmt.Errorf("%w: part %d has data but no MIME type", ErrInvalidRequest, i)
		}
		if !p.IsBlob() && p.Text == "" {
			return fmt.Errorf("%w: part %d is empty", ErrInvalidRequest, i)
		}
	}
	return nil
}

// Outcome is a successful generation.
type Outcome struct {
	Text string
	// Slot and CredentialIndex identify the credential that answered.
	Slot            string
	CredentialIndex int
	// Attempts counts backend calls made for this request, including the
	// successful one.
	Attempts int
}

// Backend performs one upstream call with one credential.
type Backend interface {
	GenerateContent(ctx context.Context, cred credential.Credential, req Request) (string, error)
}

// BackendFunc adapts a function to the Backend interface.
type BackendFunc func(ctx context.Context, cred credential.Credential, req Request) (string, error)

// GenerateContent implements Backend.
func (f BackendFunc) GenerateContent(ctx context.Context, cred credential.Credential, req Request) (string, error) {
	return f(ctx, cred, req)
}
