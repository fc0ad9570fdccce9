package email

import (
	"errors"
	"net/smtp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testReservation() Reservation {
	return Reservation{
		OrderID: "3f2a9c1e-0000-4000-8000-000000000001",
		Store:   "Surabaya",
		Items: []ReservationItem{
			{Name: "Kebaya", Size: "M", Quantity: 2, Price: 100000},
			{Name: "Sarong <Batik>", Size: "All", Quantity: 1, Price: 150000},
		},
		Total:    350000,
		PlacedAt: time.Date(2026, 3, 1, 10, 30, 0, 0, time.UTC),
	}
}

func TestFormatRupiah(t *testing.T) {
	tests := []struct {
		in   int
		want string
	}{
		{0, "Rp 0"},
		{999, "Rp 999"},
		{1000, "Rp 1.000"},
		{350000, "Rp 350.000"},
		{1250000, "Rp 1.250.000"},
		{-5000, "-Rp 5.000"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatRupiah(tt.in))
	}
}

func TestBuildReservationBody(t *testing.T) {
	body, err := BuildReservationBody(testReservation())

	require.NoError(t, err)
	assert.Contains(t, body, "#3F2A9C1E")
	assert.Contains(t, body, "Surabaya")
	assert.Contains(t, body, "Rp 200.000")
	assert.Contains(t, body, "Rp 350.000")
	assert.Contains(t, body, "01 Mar 2026")
	// Names are HTML-escaped
	assert.Contains(t, body, "Sarong &lt;Batik&gt;")
}

func TestService_SendReservationConfirmation(t *testing.T) {
	svc := NewService("mail.local", "1025", "noreply@example.com")
	var gotAddr string
	var gotTo []string
	var gotMsg []byte
	svc.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, msg
		return nil
	}

	err := svc.SendReservationConfirmation("user@example.com", testReservation())

	require.NoError(t, err)
	assert.Equal(t, "mail.local:1025", gotAddr)
	assert.Equal(t, []string{"user@example.com"}, gotTo)
	assert.Contains(t, string(gotMsg), "Subject: Reservation #3F2A9C1E confirmed for pickup at Surabaya\r\n")
}

func TestService_SendReservationConfirmation_Errors(t *testing.T) {
	svc := NewService("mail.local", "1025", "noreply@example.com")
	svc.send = func(string, smtp.Auth, string, []string, []byte) error {
		return errors.New("connection refused")
	}

	assert.Error(t, svc.SendReservationConfirmation("", testReservation()))
	assert.EqualError(t, svc.SendReservationConfirmation("user@example.com", testReservation()), "connection refused")
}

func TestBuildMessage_StripsHeaderBreaks(t *testing.T) {
	msg := string(buildMessage("a@example.com", "b@example.com\r\nBcc: x@example.com", "hi", "<p>body</p>"))

	assert.Equal(t, 1, strings.Count(msg, "To: "))
	assert.NotContains(t, msg, "\r\nBcc:")
}
