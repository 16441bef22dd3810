// Package inspect renders controller state and scene descriptions for the
// terminal.
package inspect

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/gogpu/shaderscene"
)

// StateMarkdown describes st as a markdown document, including the shader
// pair that last rendered successfully.
func StateMarkdown(st shaderscene.State) string {
	var b strings.Builder
	b.WriteString("# Shader scene\n\n")
	fmt.Fprintf(&b, "- **Running:** %v\n", st.Running)
	fmt.Fprintf(&b, "- **Loading:** %v\n", st.Loading)
	fmt.Fprintf(&b, "- **Frames:** %d\n", st.Frames)
	fmt.Fprintf(&b, "- **Generation:** %d\n", st.Generation)
	fmt.Fprintf(&b, "- **Live GPU objects:** %d\n", st.LiveResources)
	if st.Error != "" {
		fmt.Fprintf(&b, "\n> **Error:** %s\n", st.Error)
	}
	if st.VertexShader != "" {
		writeShader(&b, "Vertex shader", st.VertexShader)
	}
	if st.FragmentShader != "" {
		writeShader(&b, "Fragment shader", st.FragmentShader)
	}
	return b.String()
}

// DescriptionMarkdown summarizes a validated scene description.
func DescriptionMarkdown(d *shaderscene.Description) string {
	var b strings.Builder
	b.WriteString("# Scene description\n\n")
	fmt.Fprintf(&b, "| Field | Value |\n|---|---|\n")
	fmt.Fprintf(&b, "| Vertices | %d (%dD) |\n", d.VertexData.VertexCount(), d.VertexData.Dimensionality)
	if d.VertexData.Indexed() {
		fmt.Fprintf(&b, "| Indices | %d |\n", len(d.VertexData.Indices))
	} else {
		b.WriteString("| Indices | none |\n")
	}
	fmt.Fprintf(&b, "| Entry points | `%s` / `%s` |\n", d.VertexEntryPoint, d.FragmentEntryPoint)
	fmt.Fprintf(&b, "| Colour | %v |\n", d.Uniforms.Color)
	fmt.Fprintf(&b, "| Camera | %v → %v |\n", d.Camera.Position, d.Camera.Target)
	fmt.Fprintf(&b, "| Background | %v |\n", d.Background.Color)
	fmt.Fprintf(&b, "| Scale | %v |\n", d.Mesh.Scale)
	writeShader(&b, "Vertex shader", d.VertexShader)
	writeShader(&b, "Fragment shader", d.FragmentShader)
	return b.String()
}

func writeShader(b *strings.Builder, title, src string) {
	fmt.Fprintf(b, "\n## %s\n\n```wgsl\n%s\n```\n", title, strings.TrimSpace(src))
}

// StatusLine returns a one-line coloured summary of st.
func StatusLine(st shaderscene.State) string {
	p := termenv.ColorProfile()
	switch {
	case st.Error != "":
		return termenv.String("error: " + st.Error).Foreground(p.Color("#fb7185")).String()
	case st.Loading:
		return termenv.String("loading…").Foreground(p.Color("#a78bfa")).String()
	case st.Running:
		return termenv.String(fmt.Sprintf("running: %d frames", st.Frames)).Foreground(p.Color("#34d399")).String()
	default:
		return termenv.String("idle").Foreground(p.Color("#818cf8")).String()
	}
}

// Write renders markdown to w. Terminals get glamour styling; anything
// else receives the markdown unchanged.
func Write(w io.Writer, markdown string) error {
	if !isTerminal(w) {
		_, err := io.WriteString(w, markdown)
		return err
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
	)
	if err != nil {
		return fmt.Errorf("create markdown renderer: %w", err)
	}
	out, err := r.Render(markdown)
	if err != nil {
		return fmt.Errorf("render markdown: %w", err)
	}
	_, err = io.WriteString(w, out)
	return err
}

// Styled renders markdown with a fixed glamour style regardless of the
// destination, e.g. "dark", "light" or "notty".
func Styled(markdown, style string) (string, error) {
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(100),
	)
	if err != nil {
		return "", fmt.Errorf("create markdown renderer: %w", err)
	}
	return r.Render(markdown)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
