package notify

import "fmt"

// Templates renders account and ticket emails with links into the frontend.
type Templates struct {
	BaseURL string
}

func (t Templates) Activation(to, username, token string) Message {
	link := fmt.Sprintf("%s/activate/%s", t.BaseURL, token)
	return Message{
		To:      to,
		Subject: "Activate your account",
		Text: fmt.Sprintf("Hi %s,\n\nConfirm your email address by visiting:\n%s\n\nIf you did not sign up, ignore this email.\n",
			username, link),
		HTML: fmt.Sprintf(`<p>Hi %s,</p><p>Confirm your email address: <a href="%s">activate account</a></p>`, username, link),
	}
}

func (t Templates) PasswordReset(to, username, token string) Message {
	link := fmt.Sprintf("%s/password-reset/%s", t.BaseURL, token)
	return Message{
		To:      to,
		Subject: "Reset your password",
		Text: fmt.Sprintf("Hi %s,\n\nReset your password by visiting:\n%s\n\nIf you did not ask for this, your password stays unchanged.\n",
			username, link),
		HTML: fmt.Sprintf(`<p>Hi %s,</p><p><a href="%s">Reset your password</a></p>`, username, link),
	}
}

func (t Templates) SecondaryEmail(to, username, token string) Message {
	link := fmt.Sprintf("%s/activate-secondary-email/%s", t.BaseURL, token)
	return Message{
		To:      to,
		Subject: "Confirm your secondary email",
		Text:    fmt.Sprintf("Hi %s,\n\nConfirm this address as your secondary email:\n%s\n", username, link),
		HTML:    fmt.Sprintf(`<p>Hi %s,</p><p><a href="%s">Confirm secondary email</a></p>`, username, link),
	}
}

func (t Templates) PasswordChanged(to, username string) Message {
	return Message{
		To:      to,
		Subject: "Your password was changed",
		Text:    fmt.Sprintf("Hi %s,\n\nYour password was changed. If this was not you, contact support.\n", username),
	}
}

func (t Templates) TicketAnswered(to string, ticketID int64, title string) Message {
	link := fmt.Sprintf("%s/tickets/%d", t.BaseURL, ticketID)
	return Message{
		To:      to,
		Subject: fmt.Sprintf("Your ticket %q has an answer", title),
		Text:    fmt.Sprintf("Support answered your ticket %q:\n%s\n", title, link),
	}
}
