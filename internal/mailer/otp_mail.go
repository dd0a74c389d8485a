package mailer

import (
	"context"
	"fmt"
	"html"
)

const otpSubject = "Your OTP"

func OTPMessage(to, username, code string) Message {
	return Message{
		To:      to,
		Subject: otpSubject,
		HTML: fmt.Sprintf("<h1>Hello %s</h1> <br/> <p>Here is your OTP:  <strong>%s</strong>.</p>",
			html.EscapeString(username), html.EscapeString(code)),
	}
}

// SendOTP queues the verification code mail. Delivery happens in the background.
func (d *Dispatcher) SendOTP(_ context.Context, to, username, code string) error {
	return d.Enqueue(OTPMessage(to, username, code))
}
