package app

import (
	"fmt"
	"log"
	"net/smtp"
	"strings"
)

// Notifier delivers the three lifecycle mails. Fire-and-forget: a failed
// send is logged by the caller and never rolls back the state transition
// that triggered it.
type Notifier interface {
	SendInterviewerInvitation(req *InterviewRequest, interviewers []Employee) error
	SendCandidateInvitation(req *InterviewRequest) error
	SendConfirmationNotification(req *InterviewRequest, interviewers []Employee) error
}

// SMTPNotifier sends plain-text mail over a relay.
type SMTPNotifier struct {
	Addr string // host:port
	From string
}

func (n *SMTPNotifier) send(to []string, subject, body string) error {
	if len(to) == 0 {
		return nil
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		n.From, strings.Join(to, ", "), subject, body)
	return smtp.SendMail(n.Addr, nil, n.From, to, []byte(msg))
}

func (n *SMTPNotifier) SendInterviewerInvitation(req *InterviewRequest, interviewers []Employee) error {
	to := make([]string, 0, len(interviewers))
	for _, e := range interviewers {
		to = append(to, e.Email)
	}
	subject := fmt.Sprintf("[Interview %s] availability needed: %s", req.ID, req.PositionName)
	body := fmt.Sprintf(
		"Candidate %s is interviewing for %s.\nPreferred times:\n%s\n\nPlease submit your availability for request %s.",
		req.CandidateName, req.PositionName, slotLines(req.PreferredSlots), req.ID)
	return n.send(to, subject, body)
}

func (n *SMTPNotifier) SendCandidateInvitation(req *InterviewRequest) error {
	subject := fmt.Sprintf("[Interview %s] please pick a time: %s", req.ID, req.PositionName)
	body := fmt.Sprintf(
		"Hello %s,\n\nThe following times are available for your %s interview:\n%s",
		req.CandidateName, req.PositionName, slotLines(req.AvailableSlots))
	return n.send([]string{req.CandidateEmail}, subject, body)
}

func (n *SMTPNotifier) SendConfirmationNotification(req *InterviewRequest, interviewers []Employee) error {
	to := []string{req.CandidateEmail}
	for _, e := range interviewers {
		to = append(to, e.Email)
	}
	when := ""
	if req.SelectedSlot != nil {
		when = req.SelectedSlot.String()
		if t, err := req.SelectedSlot.StartAt(); err == nil {
			when += t.Format(" (Mon)")
		}
	}
	subject := fmt.Sprintf("[Interview %s] confirmed: %s", req.ID, req.PositionName)
	body := fmt.Sprintf("Interview for %s (%s) confirmed at %s.",
		req.CandidateName, req.PositionName, when)
	return n.send(to, subject, body)
}

func slotLines(slots []InterviewSlot) string {
	if len(slots) == 0 {
		return "(none)"
	}
	lines := make([]string, 0, len(slots))
	for _, s := range slots {
		lines = append(lines, "- "+s.String())
	}
	return strings.Join(lines, "\n")
}

// LogNotifier stands in when no SMTP relay is configured.
type LogNotifier struct{}

func (LogNotifier) SendInterviewerInvitation(req *InterviewRequest, _ []Employee) error {
	log.Printf("notify: interviewer invitation for request %s", req.ID)
	return nil
}

func (LogNotifier) SendCandidateInvitation(req *InterviewRequest) error {
	log.Printf("notify: candidate invitation for request %s", req.ID)
	return nil
}

func (LogNotifier) SendConfirmationNotification(req *InterviewRequest, _ []Employee) error {
	log.Printf("notify: confirmation for request %s", req.ID)
	return nil
}
