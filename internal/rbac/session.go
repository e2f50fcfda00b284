package rbac

import (
	"encoding/json"
	"strconv"

	"github.com/sistem-pejabat/pejabat/internal/shared"
)

const subjectSessionKey = "rbac.subject"

// StoreSubject records subject on the session and marks the session as
// belonging to subject.UserID.
func StoreSubject(sess *shared.Session, subject Subject) error {
	if sess == nil {
		return shared.ErrSessionMissing
	}
	data, err := json.Marshal(subject)
	if err != nil {
		return err
	}
	sess.SetUser(strconv.FormatInt(subject.UserID, 10))
	sess.Set(subjectSessionKey, string(data))
	return nil
}

// SubjectFromSession returns the subject stored by StoreSubject. It reports
// false for anonymous sessions or when the stored snapshot does not belong to
// the session user.
func SubjectFromSession(sess *shared.Session) (Subject, bool) {
	if sess == nil || sess.User() == "" {
		return Subject{}, false
	}
	raw := sess.Get(subjectSessionKey)
	if raw == "" {
		return Subject{}, false
	}
	var subject Subject
	if err := json.Unmarshal([]byte(raw), &subject); err != nil {
		return Subject{}, false
	}
	if strconv.FormatInt(subject.UserID, 10) != sess.User() {
		return Subject{}, false
	}
	return subject, true
}

// ClearSubject removes the stored subject.
func ClearSubject(sess *shared.Session) {
	if sess == nil {
		return
	}
	sess.Delete(subjectSessionKey)
}
