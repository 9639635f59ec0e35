package main

import (
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"testing"
	"time"

	"ticketworld/src/types"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
	"github.com/tidwall/gjson"
)

var testJwtKey = []byte(os.Getenv("JWT_SECRET"))

// testAuthMiddleware trusts the token claims directly so handler tests do
// not depend on a user lookup.
func testAuthMiddleware(ctx *gin.Context) {
	bearerToken := ctx.Request.Header.Get("Authorization")
	if !strings.HasPrefix(bearerToken, "Bearer") {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	reqToken := strings.Split(bearerToken, " ")[1]
	if reqToken == "" {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	claims := &types.Claims{}
	tkn, err := jwt.ParseWithClaims(reqToken, claims, func(t *jwt.Token) (any, error) {
		return testJwtKey, nil
	})
	if err != nil || !tkn.Valid {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	uid, err := strconv.Atoi(claims.Subject)
	if err != nil {
		ctx.AbortWithStatus(http.StatusUnauthorized)
		return
	}
	ctx.Set("id", uint(uid))
	ctx.Set("role", claims.Role)
}

type TestSuite struct {
	suite.Suite
	Router *gin.Engine
	Token  string
}

func (s *TestSuite) SetupSuite() {
	gin.SetMode(gin.TestMode)
	registerValidators()

	router := setupRouter()
	authorized := router.Group(apiPrefix)
	authorized.Use(testAuthMiddleware)
	{
		authorized = eventHandlers(authorized)
		authorized = reservationHandlers(authorized)
		authorized = seatHoldHandlers(authorized)
		authorized = paymentHandlers(authorized)
	}
	s.Router = router

	claims := types.Claims{
		Username: "tester",
		Role:     "member",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "7",
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(testJwtKey)
	s.Require().NoError(err)
	s.Token = token
}

func (s *TestSuite) request(method, target, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Authorization", "Bearer "+s.Token)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	return w
}

func (s *TestSuite) TestPing() {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	assert.Equal(s.T(), http.StatusOK, w.Code)
}

func (s *TestSuite) TestMissingTokenUnauthorized() {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations", nil)
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

func (s *TestSuite) TestGarbageTokenUnauthorized() {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/reservations", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	w := httptest.NewRecorder()
	s.Router.ServeHTTP(w, req)
	assert.Equal(s.T(), http.StatusUnauthorized, w.Code)
}

func (s *TestSuite) TestReservationUpdateNotAllowed() {
	w := s.request(http.MethodPut, "/api/v1/reservations/1", `{"status":"reserved"}`)
	assert.Equal(s.T(), http.StatusMethodNotAllowed, w.Code)

	w = s.request(http.MethodPatch, "/api/v1/reservations/1", `{"status":"reserved"}`)
	assert.Equal(s.T(), http.StatusMethodNotAllowed, w.Code)
}

func (s *TestSuite) TestConfirmPaymentRequiresPaymentID() {
	w := s.request(http.MethodPost, "/api/v1/reservations/1/payment-successful", `{}`)
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
	errs := gjson.Get(w.Body.String(), "errors")
	assert.Contains(s.T(), errs.String(), "payment_id")
}

func (s *TestSuite) TestCreateReservationRequiresEvent() {
	w := s.request(http.MethodPost, "/api/v1/reservations", `{}`)
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *TestSuite) TestSeatHoldsRequireSeats() {
	w := s.request(http.MethodPost, "/api/v1/seat-holds", `{"reservation":1,"seats":[]}`)
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *TestSuite) TestCreateEventRejectsPastDates() {
	w := s.request(http.MethodPost, "/api/v1/events", `{
		"name": "gig",
		"venue": 1,
		"start_date": "2020-01-01 10:00:00 +00:00",
		"end_date": "2020-01-01 12:00:00 +00:00"
	}`)
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *TestSuite) TestCreateEventRejectsEndBeforeStart() {
	w := s.request(http.MethodPost, "/api/v1/events", `{
		"name": "gig",
		"venue": 1,
		"start_date": "2030-01-01 12:00:00 +00:00",
		"end_date": "2030-01-01 10:00:00 +00:00"
	}`)
	assert.Equal(s.T(), http.StatusBadRequest, w.Code)
}

func (s *TestSuite) TestReservationStatuses() {
	w := s.request(http.MethodGet, "/api/v1/reservations/statuses", "")
	assert.Equal(s.T(), http.StatusOK, w.Code)
	data := gjson.Get(w.Body.String(), "data")
	assert.Len(s.T(), data.Array(), 3)
	assert.Contains(s.T(), w.Body.String(), "invalidated")
}

func TestSuiteRun(t *testing.T) {
	suite.Run(t, new(TestSuite))
}
