// Package spreadsheet renders client exports as xlsx workbooks.
package spreadsheet

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/salesdesk/backoffice/internal/core/domain"
)

const (
	SheetClients = "Clientes"

	missingPhone       = "Não informado"
	missingDescription = "Não informada"

	currencyFormat = `"R$" #,##0.00`
	dateFormat     = "dd/mm/yyyy"
)

var clientHeaders = []string{
	"ID", "Nome", "CPF", "Data Nascimento", "Telefone", "Vendedor ID", "Vendedor Email",
	"Data Criação", "Valor Disponível", "Status", "Banco", "Descrição",
}

// ClientWriter streams clients into a single-sheet workbook.
type ClientWriter struct{}

func NewClientWriter() *ClientWriter {
	return &ClientWriter{}
}

type styles struct {
	header, date, money int
}

func newStyles(f *excelize.File) (styles, error) {
	var s styles
	var err error
	if s.header, err = f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err != nil {
		return s, err
	}
	df := dateFormat
	if s.date, err = f.NewStyle(&excelize.Style{CustomNumFmt: &df}); err != nil {
		return s, err
	}
	cf := currencyFormat
	if s.money, err = f.NewStyle(&excelize.Style{CustomNumFmt: &cf}); err != nil {
		return s, err
	}
	return s, nil
}

func (ClientWriter) WriteClients(w io.Writer, clients []*domain.Client) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetClients); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	st, err := newStyles(f)
	if err != nil {
		return fmt.Errorf("create styles: %w", err)
	}

	sw, err := f.NewStreamWriter(SheetClients)
	if err != nil {
		return fmt.Errorf("open stream writer: %w", err)
	}
	if err := sw.SetColWidth(1, len(clientHeaders), 20); err != nil {
		return err
	}

	header := make([]interface{}, len(clientHeaders))
	for i, h := range clientHeaders {
		header[i] = excelize.Cell{StyleID: st.header, Value: h}
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, c := range clients {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, clientRow(c, st)); err != nil {
			return fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func clientRow(c *domain.Client, st styles) []interface{} {
	return []interface{}{
		c.ID,
		c.Name,
		c.TaxID,
		excelize.Cell{StyleID: st.date, Value: c.BirthDate},
		orDefault(c.Phone, missingPhone),
		strconv.FormatInt(c.OwnerID, 10),
		c.OwnerEmail,
		excelize.Cell{StyleID: st.date, Value: c.CreatedAt},
		excelize.Cell{StyleID: st.money, Value: c.AvailableValue.InexactFloat64()},
		c.Status,
		c.Bank,
		orDefault(c.Description, missingDescription),
	}
}

func orDefault(v *string, fallback string) string {
	if v == nil || *v == "" {
		return fallback
	}
	return *v
}
