// Package report renders validation reports as PDF files.
package report

import (
	"fmt"

	"github.com/jung-kurt/gofpdf"
	"golang.org/x/text/encoding/charmap"

	"github.com/hyperifyio/ocrules/internal/battery"
)

// Page geometry in millimetres: A4 with one inch side and top margins and a
// quarter inch at the bottom.
const (
	marginSide   = 25.4
	marginTop    = 25.4
	marginBottom = 6.35
	imageHeight  = 152.4
	bodySize     = 12.0
)

type blockKind int

const (
	blockHeading blockKind = iota
	blockParagraph
	blockSpacer
	blockLine
	blockPageBreak
	blockImage
)

type block struct {
	kind  blockKind
	text  string
	size  float64
	align battery.Align
}

// PDF collects report content and renders it to Path when saved.
type PDF struct {
	Path   string
	blocks []block
}

// New returns an empty PDF document that Save writes to path.
func New(path string) *PDF {
	return &PDF{Path: path}
}

// NewDocument adapts New to battery.NewDocument.
func NewDocument(path string) battery.Document {
	return New(path)
}

func (p *PDF) Heading(text string, size float64, align battery.Align) {
	p.blocks = append(p.blocks, block{kind: blockHeading, text: text, size: size, align: align})
}

func (p *PDF) Paragraph(text string) {
	p.blocks = append(p.blocks, block{kind: blockParagraph, text: text, size: bodySize})
}

func (p *PDF) Spacer(mm float64) {
	p.blocks = append(p.blocks, block{kind: blockSpacer, size: mm})
}

func (p *PDF) HorizontalLine() {
	p.blocks = append(p.blocks, block{kind: blockLine})
}

func (p *PDF) PageBreak() {
	p.blocks = append(p.blocks, block{kind: blockPageBreak})
}

func (p *PDF) Image(path string) {
	p.blocks = append(p.blocks, block{kind: blockImage, text: path})
}

// Save renders all blocks and writes the file.
func (p *PDF) Save() error {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(marginSide, marginTop, marginSide)
	pdf.SetAutoPageBreak(true, marginBottom)
	pdf.AddPage()
	pageW, _ := pdf.GetPageSize()
	contentW := pageW - 2*marginSide

	for _, b := range p.blocks {
		switch b.kind {
		case blockHeading:
			pdf.SetFont("Helvetica", "B", b.size)
			pdf.MultiCell(0, lineHeight(b.size), encode(b.text), "", alignStr(b.align), false)
		case blockParagraph:
			pdf.SetFont("Helvetica", "", b.size)
			pdf.MultiCell(0, lineHeight(b.size), encode(b.text), "", "L", false)
		case blockSpacer:
			pdf.Ln(b.size)
		case blockLine:
			y := pdf.GetY()
			pdf.SetLineWidth(0.2)
			pdf.Line(marginSide, y, marginSide+contentW, y)
			pdf.Ln(1)
		case blockPageBreak:
			pdf.AddPage()
		case blockImage:
			info := pdf.RegisterImageOptions(b.text, gofpdf.ImageOptions{ReadDpi: true})
			if pdf.Err() {
				return fmt.Errorf("register image %s: %w", b.text, pdf.Error())
			}
			w, h := fitImage(info.Width(), info.Height(), contentW, imageHeight)
			pdf.ImageOptions(b.text, marginSide, -1, w, h, true, gofpdf.ImageOptions{ReadDpi: true}, 0, "")
		}
	}
	if err := pdf.OutputFileAndClose(p.Path); err != nil {
		return fmt.Errorf("write pdf %s: %w", p.Path, err)
	}
	return nil
}

// fitImage scales an image to the given height, shrinking further when it
// would be wider than maxW. It preserves the aspect ratio.
func fitImage(imgW, imgH, maxW, height float64) (float64, float64) {
	if imgW <= 0 || imgH <= 0 {
		return maxW, height
	}
	w := height * imgW / imgH
	if w > maxW {
		return maxW, maxW * imgH / imgW
	}
	return w, height
}

// lineHeight converts a font size in points to a line height in mm with a
// little leading.
func lineHeight(size float64) float64 {
	return size * 0.3528 * 1.25
}

func alignStr(a battery.Align) string {
	if a == battery.AlignCenter {
		return "C"
	}
	return "L"
}

// encode converts text to Windows-1252 for the PDF core fonts, unsupported
// runes becoming '?'. Text is written as given, markup included.
func encode(s string) string {
	out := make([]byte, 0, len(s))
	for _, r := range s {
		b, ok := charmap.Windows1252.EncodeRune(r)
		if !ok {
			b = '?'
		}
		out = append(out, b)
	}
	return string(out)
}
