package report

import (
	"io"
	"strconv"

	"github.com/fumiama/go-docx"
)

// docxBuilder is the small paragraph vocabulary the executive summary needs,
// on top of go-docx.
type docxBuilder struct {
	doc *docx.Docx
}

func newDocxBuilder() *docxBuilder {
	return &docxBuilder{doc: docx.New().WithDefaultTheme()}
}

// size is in points; go-docx takes half-points.
func halfPoints(size int) string {
	return strconv.Itoa(size * 2)
}

func (d *docxBuilder) heading(text string, level int) {
	size := 16
	if level == 1 {
		size = 22
	}
	d.doc.AddParagraph().AddText(text).Bold().Size(halfPoints(size))
}

func (d *docxBuilder) para(text string) {
	d.doc.AddParagraph().AddText(text)
}

func (d *docxBuilder) field(label, value string) {
	p := d.doc.AddParagraph()
	p.AddText(label + ": ").Bold()
	p.AddText(value)
}

func (d *docxBuilder) bullet(text string) {
	d.doc.AddParagraph().AddText("• " + text)
}

func (d *docxBuilder) writeTo(w io.Writer) error {
	// Section properties must close the body.
	d.doc.WithA4Page()
	_, err := d.doc.WriteTo(w)
	return err
}
