package export

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"
	"time"

	"rifas-admin/internal/models"
)

var ticketHeader = []string{
	"ID", "Rifa", "Numero", "Jugador", "Email", "Telefono", "Cedula", "Precio", "Estado", "Fecha",
}

// flatten keeps one record per line
var flatten = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// TicketsCSV writes a header plus one line per ticket. Embedded quotes are
// doubled by the csv writer.
func TicketsCSV(w io.Writer, tickets []models.TicketView) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(ticketHeader); err != nil {
		return err
	}
	for _, t := range tickets {
		record := []string{
			strconv.FormatInt(t.ID, 10),
			t.RaffleName,
			t.Number,
			t.PlayerName(),
			t.PlayerEmail,
			t.PlayerPhone,
			t.PlayerNationalID,
			strconv.FormatFloat(t.Price, 'f', 2, 64),
			t.Status,
			t.CreatedAt.Format(time.DateTime),
		}
		for i := range record {
			record[i] = flatten.Replace(record[i])
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// TicketsFilename names a download after the export date.
func TicketsFilename(now time.Time) string {
	return "tickets_" + now.Format("2006-01-02") + ".csv"
}
