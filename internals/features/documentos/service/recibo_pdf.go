package service

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/phpdave11/gofpdf"

	"colegio_backend/internals/features/documentos/model"
)

// metadata keys printed on the receipt, in order
var reciboFields = []struct{ key, label string }{
	{"student_nombre", "Alumno"},
	{"student_codigo", "Código"},
	{"concepto_nombre", "Concepto"},
	{"fecha_vencimiento", "Vencimiento"},
	{"monto", "Monto pagado"},
	{"moneda", "Moneda"},
	{"metodo", "Método"},
	{"numero_operacion", "N° operación"},
	{"aprobado_at", "Aprobado"},
}

// RenderPDF draws an A4 receipt for doc. verifyURL is printed under the code.
func RenderPDF(doc *model.DocumentoEmitido, schoolName, verifyURL string) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pdf.SetTitle(doc.DocumentoTitulo, true)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.CellFormat(0, 10, tr(schoolName), "", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 12)
	pdf.CellFormat(0, 8, tr(doc.DocumentoTitulo), "", 1, "C", false, 0, "")
	pdf.Ln(6)

	printed := map[string]bool{}
	pdf.SetFont("Helvetica", "", 11)
	for _, f := range reciboFields {
		v, ok := doc.DocumentoMetadata[f.key]
		if !ok || v == nil {
			continue
		}
		printed[f.key] = true
		row(pdf, tr(f.label), tr(fmt.Sprint(v)))
	}
	// anything else that was attached at issue time
	extra := make([]string, 0)
	for k := range doc.DocumentoMetadata {
		if !printed[k] {
			extra = append(extra, k)
		}
	}
	sort.Strings(extra)
	for _, k := range extra {
		row(pdf, tr(k), tr(fmt.Sprint(doc.DocumentoMetadata[k])))
	}

	pdf.Ln(8)
	pdf.SetFont("Courier", "B", 14)
	pdf.CellFormat(0, 10, doc.DocumentoCodigo, "1", 1, "C", false, 0, "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.CellFormat(0, 6, tr("Verifique este documento en: "+verifyURL), "", 1, "C", false, 0, "")
	pdf.CellFormat(0, 6, "Emitido: "+doc.DocumentoEmitidoAt.Format("2006-01-02 15:04 MST"), "", 1, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func row(pdf *gofpdf.Fpdf, label, value string) {
	pdf.SetFont("Helvetica", "B", 11)
	pdf.CellFormat(50, 8, label, "B", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 11)
	pdf.CellFormat(0, 8, value, "B", 1, "L", false, 0, "")
}
