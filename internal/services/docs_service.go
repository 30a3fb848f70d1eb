package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/phpdave11/gofpdf"

	"busbooking/internal/domain"
	"busbooking/internal/domain/models"
	"busbooking/internal/utils"
)

// DocsService menghasilkan PDF e-ticket per booking (1 penumpang, 1 seat).
type DocsService struct {
	Bookings  BookingService
	RequestID string
	Loader    func(ctx context.Context, bookingID string) (models.ConfirmedBooking, error)
}

func (s DocsService) load(ctx context.Context, bookingID string) (models.ConfirmedBooking, error) {
	if s.Loader != nil {
		return s.Loader(ctx, bookingID)
	}
	return s.Bookings.Find(ctx, bookingID)
}

// GenerateTicket returns the PDF bytes and a download file name.
func (s DocsService) GenerateTicket(ctx context.Context, bookingID string) ([]byte, string, error) {
	b, err := s.load(ctx, bookingID)
	if err != nil {
		return nil, "", err
	}
	if b.BookingStatus == models.BookingCancelled {
		return nil, "", domain.ConflictError{Resource: "booking", Msg: "cancelled bookings have no ticket"}
	}
	utils.LogEvent(s.RequestID, "docs", "generate_ticket", "booking_id="+b.ID)
	return buildTicketPDF(b)
}

func buildTicketPDF(b models.ConfirmedBooking) ([]byte, string, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("E-Ticket", false)
	pdf.AddPage()
	pdf.SetFont("Helvetica", "B", 18)
	pdf.Cell(0, 10, "E-TICKET")
	pdf.Ln(12)

	pdf.SetFont("Helvetica", "", 12)
	lines := []string{
		fmt.Sprintf("Passenger      : %s", safe(b.PassengerName, "-")),
		fmt.Sprintf("Age            : %s", ageText(b.PassengerAge)),
		fmt.Sprintf("Seat           : %d", b.SeatNumber),
		fmt.Sprintf("Train          : %s", safe(b.TrainName, "-")),
		fmt.Sprintf("Route          : %s -> %s", safe(b.From, "-"), safe(b.To, "-")),
		fmt.Sprintf("Date/Time      : %s %s", safe(dateOnly(b.TravelDate), "-"), safe(timeHM(b.DepartureTime), "-")),
		fmt.Sprintf("Status         : %s / %s", safe(string(b.BookingStatus), "-"), safe(string(b.PaymentStatus), "-")),
		fmt.Sprintf("Booking Code   : %s", safe(b.ID, "-")),
		fmt.Sprintf("Ticket Code    : TCK-%s-%d", safeFilenamePart(b.ID), b.SeatNumber),
	}
	for _, s := range lines {
		pdf.Cell(0, 7, s)
		pdf.Ln(7)
	}

	pdf.Ln(6)
	pdf.SetFont("Helvetica", "I", 10)
	pdf.MultiCell(0, 6, "This e-ticket is valid for 1 passenger (1 seat). Please show it at boarding.", "", "", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, "", err
	}

	filename := fmt.Sprintf("ETICKET_%s_%s.pdf", safeFilenamePart(b.ID), safeFilenamePart(fmt.Sprintf("%s_%d", b.PassengerName, b.SeatNumber)))
	return buf.Bytes(), filename, nil
}

func ageText(age int) string {
	if age <= 0 {
		return "-"
	}
	return fmt.Sprintf("%d", age)
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func dateOnly(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 10 {
		return v[:10]
	}
	return v
}

func timeHM(v string) string {
	v = strings.TrimSpace(v)
	if len(v) >= 5 {
		return v[:5]
	}
	return v
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}
