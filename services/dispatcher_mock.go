package services

import (
	"context"
	"sync"
)

// NotifyCall records one Notify invocation on MockDispatcher
type NotifyCall struct {
	UserID   uint
	Title    string
	Body     string
	Category string
	LinkURL  string
}

// EmailCall records one SendEmail invocation on MockDispatcher
type EmailCall struct {
	To       string
	Subject  string
	HTMLBody string
	TextBody string
}

// MockDispatcher is an in-memory Dispatcher for tests. NotifyErr/EmailErr
// make the calls fail; PanicOnNotify makes Notify panic.
type MockDispatcher struct {
	mu            sync.Mutex
	notifyCalls   []NotifyCall
	emailCalls    []EmailCall
	NotifyErr     error
	EmailErr      error
	PanicOnNotify bool
}

// NewMockDispatcher creates a new mock dispatcher
func NewMockDispatcher() *MockDispatcher {
	return &MockDispatcher{}
}

// SetAsMockForTesting installs this mock as the process-wide dispatcher
func (m *MockDispatcher) SetAsMockForTesting() {
	SetDispatcher(m)
}

// Notify records the call
func (m *MockDispatcher) Notify(_ context.Context, userID uint, title, body, category, linkURL string) error {
	m.mu.Lock()
	m.notifyCalls = append(m.notifyCalls, NotifyCall{UserID: userID, Title: title, Body: body, Category: category, LinkURL: linkURL})
	m.mu.Unlock()

	if m.PanicOnNotify {
		panic("mock dispatcher: notify exploded")
	}
	return m.NotifyErr
}

// SendEmail records the call
func (m *MockDispatcher) SendEmail(_ context.Context, to, subject, htmlBody, textBody string) error {
	m.mu.Lock()
	m.emailCalls = append(m.emailCalls, EmailCall{To: to, Subject: subject, HTMLBody: htmlBody, TextBody: textBody})
	m.mu.Unlock()
	return m.EmailErr
}

// NotifyCalls returns a copy of the recorded Notify calls
func (m *MockDispatcher) NotifyCalls() []NotifyCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]NotifyCall(nil), m.notifyCalls...)
}

// EmailCalls returns a copy of the recorded SendEmail calls
func (m *MockDispatcher) EmailCalls() []EmailCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]EmailCall(nil), m.emailCalls...)
}

// Clear forgets all recorded calls
func (m *MockDispatcher) Clear() {
	m.mu.Lock()
	m.notifyCalls = nil
	m.emailCalls = nil
	m.mu.Unlock()
}

// MockMailer is an in-memory Mailer for tests
type MockMailer struct {
	mu   sync.Mutex
	sent []EmailCall
	Err  error
}

// NewMockMailer creates a new mock mailer
func NewMockMailer() *MockMailer {
	return &MockMailer{}
}

// Send records the message
func (m *MockMailer) Send(_ context.Context, to, subject, htmlBody, textBody string) error {
	if m.Err != nil {
		return m.Err
	}
	m.mu.Lock()
	m.sent = append(m.sent, EmailCall{To: to, Subject: subject, HTMLBody: htmlBody, TextBody: textBody})
	m.mu.Unlock()
	return nil
}

// Sent returns a copy of the sent messages
func (m *MockMailer) Sent() []EmailCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]EmailCall(nil), m.sent...)
}
