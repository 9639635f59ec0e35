package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type JSONB map[string]any

func (a JSONB) Value() (driver.Value, error) {
	valueString, err := json.Marshal(a)
	return string(valueString), err
}
func (a *JSONB) Scan(value any) error {
	b, ok := value.([]byte)
	if !ok {
		return errors.New("type assertion to []byte failed")
	}
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}
	return nil
}

type EventStatus string

const (
	EVENT_CREATED              EventStatus = "created"
	EVENT_RUNNING              EventStatus = "running"
	EVENT_COMPLETED            EventStatus = "completed"
	EVENT_COMPLETED_WITH_ERROR EventStatus = "completed_with_error"
)

type ReservationStatus string

// Reservation status is changed by the payment confirmation path or the
// background sweeper only, never by a direct seat-level action.
const (
	RESERVATION_CREATED     ReservationStatus = "created"
	RESERVATION_INVALIDATED ReservationStatus = "invalidated"
	RESERVATION_RESERVED    ReservationStatus = "reserved"
)

type RefundStatus string

const (
	REFUND_PENDING RefundStatus = "pending"
	REFUND_DONE    RefundStatus = "done"
)

type Env string

const (
	Local      Env = "local"
	Test       Env = "test"
	Production Env = "production"
)

type RegisterUserRequestBody struct {
	Name  string `json:"name" binding:"required"`
	Email string `json:"email" binding:"required,email"`
}

type CreateVenueRequestBody struct {
	Name     string `json:"name" binding:"required"`
	Address  string `json:"address,omitempty"`
	Capacity uint   `json:"capacity,omitempty"`
}

type CreateEventRequestBody struct {
	Name        string `json:"name" binding:"required"`
	Description string `json:"description,omitempty"`
	VenueID     uint   `json:"venue" binding:"required"`
	StartDate   string `json:"start_date" binding:"required,bookabledate" time_format:"2006-01-02 15:04:05 -07:00"`
	EndDate     string `json:"end_date" binding:"required,bookabledate,gtdate=StartDate" time_format:"2006-01-02 15:04:05 -07:00"`
	Tags        []uint `json:"tags,omitempty"`
}

type CreateSeatTypeRequestBody struct {
	Name      string `json:"name" binding:"required"`
	Info      string `json:"info,omitempty"`
	Price     uint   `json:"price"`
	EventID   uint   `json:"event" binding:"required"`
	SeatCount uint   `json:"seat_count,omitempty"`
}

type CreateReservationRequestBody struct {
	EventID uint `json:"event" binding:"required"`
}

type CreateSeatHoldsRequestBody struct {
	ReservationID uint   `json:"reservation" binding:"required"`
	SeatIDs       []uint `json:"seats" binding:"required,min=1"`
}

type ConfirmPaymentRequestBody struct {
	PaymentID *string `json:"payment_id"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

type TicketSummary struct {
	EventName     string `json:"event_name"`
	ReservationID uint   `json:"reservation_id"`
	TicketNumber  string `json:"ticket_number"`
	NumberOfSeats int    `json:"number_of_seats"`
	TotalCost     uint   `json:"total_cost"`
	SeatNumbers   []uint `json:"seat_numbers"`
}

type SeatAvailability struct {
	SeatID     uint `json:"seat_id"`
	SeatNumber uint `json:"seat_number"`
	Occupied   bool `json:"occupied"`
}

type Claims struct {
	Username string `json:"username"`
	Role     string `json:"role"`
	jwt.RegisteredClaims
}

// Handler consumes one raw queue message body.
type Handler func(payload string)
