package utils

import (
	"fmt"
	"log"
	"os"
	"path"
	"strings"

	"ticketworld/src/db"
	"ticketworld/src/lib"
	"ticketworld/src/models"
	"ticketworld/src/types"

	"github.com/yeqown/go-qrcode"
	"gorm.io/gorm"
)

// GenerateTicketQR renders the ticket number as a QR image and returns the
// file path. Callers own the cleanup of the file.
func GenerateTicketQR(ticketNumber string) (string, error) {
	qrc, err := qrcode.New(ticketNumber)
	if err != nil {
		return "", err
	}
	filepath := path.Join(os.TempDir(), fmt.Sprintf("%s.jpeg", ticketNumber))
	if err := qrc.Save(filepath); err != nil {
		log.Printf("Could not save qrcode to file [%s]: %s\n", filepath, err.Error())
		return "", err
	}
	return filepath, nil
}

// SendTicketEmail mails the ticket summary and a QR of the ticket number to
// the reservation owner. Errors are logged, not returned: confirmation has
// already committed and the ticket stays retrievable over the API.
func SendTicketEmail(reservationId uint) {
	con := db.GetDb()
	var reservation models.Reservation
	var user models.User
	var summary *types.TicketSummary
	err := con.Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where(&models.Reservation{ID: reservationId}).
			First(&reservation).
			Error; err != nil {
			return err
		}
		if err := tx.
			Where(&models.User{ID: reservation.UserID}).
			First(&user).
			Error; err != nil {
			return err
		}
		s, err := reservation.GetSummary(tx)
		if err != nil {
			return err
		}
		summary = s
		return nil
	})
	if err != nil {
		log.Printf("Error preparing ticket email for reservation [%d]: %s\n", reservationId, err.Error())
		return
	}
	if user.Email == "" {
		return
	}
	attachment, err := GenerateTicketQR(summary.TicketNumber)
	if err != nil {
		log.Printf("Error generating ticket QR for reservation [%d]: %s\n", reservationId, err.Error())
		attachment = ""
	} else {
		defer os.Remove(attachment)
	}
	seatNumbers := make([]string, 0, len(summary.SeatNumbers))
	for _, n := range summary.SeatNumbers {
		seatNumbers = append(seatNumbers, fmt.Sprint(n))
	}
	body := fmt.Sprintf(
		"Your reservation for %s is confirmed.\n\nTicket number: %s\nSeats: %s\nTotal: %d\n",
		summary.EventName,
		summary.TicketNumber,
		strings.Join(seatNumbers, ", "),
		summary.TotalCost,
	)
	err = lib.SendMail(&lib.SendMailInput{
		From:       os.Getenv("SMTP_FROM"),
		FromName:   "Ticketworld",
		To:         []string{user.Email},
		Subject:    fmt.Sprintf("Your ticket for %s", summary.EventName),
		Body:       body,
		Attachment: attachment,
	})
	if err != nil {
		log.Printf("Error sending ticket email for reservation [%d]: %s\n", reservationId, err.Error())
	}
}
