package mailer

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/bardan8586/Fancy-Enterprise/models"
)

var (
	passwordResetTmpl = template.Must(template.New("reset").Parse(`<h2>Password reset</h2>
<p>Hi {{.Name}},</p>
<p>We received a request to reset your password. The link below is valid for 15 minutes.</p>
<p><a href="{{.Link}}">Reset your password</a></p>
<p>If you did not ask for this you can ignore this email.</p>`))

	orderConfirmationTmpl = template.Must(template.New("confirmation").Parse(`<h2>Thanks for your order</h2>
<p>Order <strong>{{.ID}}</strong> has been placed and is now {{.Status}}.</p>
<table>
{{range .Items}}<tr><td>{{.Name}}</td><td>{{.Quantity}} x {{printf "%.2f" .Price}}</td></tr>
{{end}}</table>
<p>Total: <strong>{{printf "%.2f" .Total}}</strong></p>
<p>Shipping to {{.Address.Address}}, {{.Address.City}} {{.Address.PostalCode}}, {{.Address.Country}}</p>`))

	orderStatusTmpl = template.Must(template.New("status").Parse(`<h2>Order update</h2>
<p>Your order <strong>{{.ID}}</strong> is now <strong>{{.Status}}</strong>.</p>`))
)

type Message struct {
	Subject string
	Body    string
}

func PasswordReset(name, link string) (Message, error) {
	body, err := render(passwordResetTmpl, map[string]string{"Name": name, "Link": link})
	return Message{Subject: "Reset your password", Body: body}, err
}

func OrderConfirmation(order *models.Order) (Message, error) {
	body, err := render(orderConfirmationTmpl, map[string]any{
		"ID":      order.ID.Hex(),
		"Status":  order.Status,
		"Items":   order.OrderItems,
		"Total":   order.TotalPrice,
		"Address": order.ShippingAddress,
	})
	return Message{Subject: fmt.Sprintf("Order %s confirmed", order.ID.Hex()), Body: body}, err
}

func OrderStatus(order *models.Order) (Message, error) {
	body, err := render(orderStatusTmpl, map[string]string{"ID": order.ID.Hex(), "Status": order.Status})
	return Message{Subject: fmt.Sprintf("Order %s is %s", order.ID.Hex(), order.Status), Body: body}, err
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("render %s email: %w", t.Name(), err)
	}
	return buf.String(), nil
}
