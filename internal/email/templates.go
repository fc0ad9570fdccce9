package email

import (
	"fmt"
	"html/template"
	"strings"
	"time"
)

// ReservationItem is one reserved line as shown in the confirmation mail
type ReservationItem struct {
	Name     string
	Size     string
	Quantity int
	Price    int
}

// Subtotal returns price times quantity
func (i ReservationItem) Subtotal() int {
	return i.Price * i.Quantity
}

// Reservation is the content of a pickup confirmation
type Reservation struct {
	OrderID  string
	Store    string
	Items    []ReservationItem
	Total    int
	PlacedAt time.Time
}

var reservationTemplate = template.Must(template.New("reservation").Funcs(template.FuncMap{
	"rupiah":  FormatRupiah,
	"shortID": shortID,
}).Parse(`<!DOCTYPE html>
<html>
<head>
	<meta charset="UTF-8">
	<meta name="viewport" content="width=device-width, initial-scale=1.0">
</head>
<body style="font-family: -apple-system, BlinkMacSystemFont, 'Segoe UI', Roboto, sans-serif; line-height: 1.6; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
	<div style="background: #8a1538; padding: 24px; border-radius: 10px 10px 0 0;">
		<h1 style="color: white; margin: 0; font-size: 22px;">Your reservation is approved</h1>
	</div>

	<div style="background: #fff; padding: 24px; border: 1px solid #eee; border-top: none; border-radius: 0 0 10px 10px;">
		<p style="margin-top: 0;">Your items are reserved. Show the reservation number at the store counter to pick them up.</p>

		<div style="background: #f8f9fa; padding: 15px; border-radius: 5px; margin: 20px 0;">
			<p style="margin: 0; font-size: 14px; color: #666;">Reservation number</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold; font-family: monospace;">#{{shortID .OrderID}}</p>
			<p style="margin: 10px 0 0 0; font-size: 14px; color: #666;">Pickup store</p>
			<p style="margin: 5px 0 0 0; font-size: 18px; font-weight: bold;">{{.Store}}</p>
		</div>

		<table style="width: 100%; border-collapse: collapse; margin: 20px 0;">
			<thead>
				<tr style="background: #f8f9fa;">
					<th style="padding: 12px; text-align: left;">Item</th>
					<th style="padding: 12px; text-align: center;">Size</th>
					<th style="padding: 12px; text-align: center;">Qty</th>
					<th style="padding: 12px; text-align: right;">Subtotal</th>
				</tr>
			</thead>
			<tbody>
				{{- range .Items}}
				<tr>
					<td style="padding: 12px; border-bottom: 1px solid #eee;">{{.Name}}</td>
					<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: center;">{{.Size}}</td>
					<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: center;">{{.Quantity}}</td>
					<td style="padding: 12px; border-bottom: 1px solid #eee; text-align: right;">{{rupiah .Subtotal}}</td>
				</tr>
				{{- end}}
			</tbody>
		</table>

		<div style="text-align: right; padding: 20px; background: #f8f9fa; border-radius: 5px;">
			<span style="font-size: 14px; color: #666;">Total</span>
			<span style="font-size: 22px; font-weight: bold; color: #8a1538; margin-left: 10px;">{{rupiah .Total}}</span>
		</div>

		<p style="font-size: 12px; color: #999; margin-bottom: 0;">
			Placed {{.PlacedAt.Format "02 Jan 2006 15:04 MST"}}. Questions about this reservation can be sent from the order chat in the app.
		</p>
	</div>
</body>
</html>`))

// BuildReservationBody renders the HTML body of a reservation confirmation
func BuildReservationBody(r Reservation) (string, error) {
	var sb strings.Builder
	if err := reservationTemplate.Execute(&sb, r); err != nil {
		return "", fmt.Errorf("failed to render reservation %s: %w", r.OrderID, err)
	}
	return sb.String(), nil
}

// FormatRupiah formats an amount as "Rp 1.250.000"
func FormatRupiah(n int) string {
	sign := ""
	if n < 0 {
		sign = "-"
		n = -n
	}
	str := fmt.Sprintf("%d", n)

	var result strings.Builder
	for i, c := range str {
		if i > 0 && (len(str)-i)%3 == 0 {
			result.WriteByte('.')
		}
		result.WriteRune(c)
	}
	return sign + "Rp " + result.String()
}

func shortID(id string) string {
	if len(id) > 8 {
		return strings.ToUpper(id[:8])
	}
	return strings.ToUpper(id)
}
