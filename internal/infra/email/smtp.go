package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"
)

// ConfirmationPayload carries everything the payment-confirmation mail
// template needs.
type ConfirmationPayload struct {
	To          string
	FullName    string
	Reference   string
	AmountCents int64
	Currency    string
	Items       []ConfirmationItem
}

type ConfirmationItem struct {
	Name     string
	Quantity int64
	Total    float64
}

type SMTPSender struct {
	addr string
	from string
}

func NewSMTPSender(addr, from string) *SMTPSender {
	return &SMTPSender{addr: addr, from: from}
}

func (s *SMTPSender) SendPaymentConfirmation(ctx context.Context, p ConfirmationPayload) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var b strings.Builder
	fmt.Fprintf(&b, "To: %s\r\n", p.To)
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "Subject: Payment confirmed - order %s\r\n", p.Reference)
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "Hi %s,\r\n\r\n", p.FullName)
	fmt.Fprintf(&b, "Your payment for order %s was confirmed.\r\n\r\n", p.Reference)
	for _, it := range p.Items {
		fmt.Fprintf(&b, "  %d x %s - %.2f\r\n", it.Quantity, it.Name, it.Total)
	}
	fmt.Fprintf(&b, "\r\nTotal: %.2f %s\r\n", float64(p.AmountCents)/100, p.Currency)

	return smtp.SendMail(s.addr, nil, s.from, []string{p.To}, []byte(b.String()))
}
