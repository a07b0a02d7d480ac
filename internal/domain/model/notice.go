package model

// NoticeKind classifies what the visitor is told after a submit attempt.
type NoticeKind string

const (
	NoticeSuccess     NoticeKind = "success"
	NoticeValidation  NoticeKind = "validation"
	NoticeDuplicate   NoticeKind = "duplicate"
	NoticePersistence NoticeKind = "persistence"
	NoticeUnexpected  NoticeKind = "unexpected"
	NoticeExport      NoticeKind = "export"
	NoticeBusy        NoticeKind = "busy"
)

// Notice is a dismissible, end-user facing message.
type Notice struct {
	Kind        NoticeKind `json:"kind"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
}

// Destructive reports whether the notice describes a failure.
func (n *Notice) Destructive() bool {
	return n != nil && n.Kind != NoticeSuccess
}

func NoticeMissingFields() *Notice {
	return &Notice{
		Kind:        NoticeValidation,
		Title:       "Please fill in all fields",
		Description: "All fields are required to generate your discount code.",
	}
}

func NoticeConsentRequired() *Notice {
	return &Notice{
		Kind:        NoticeValidation,
		Title:       "Please accept the privacy policy",
		Description: "You need to agree to our privacy policy before we can issue your code.",
	}
}

func NoticeInvalidEmail() *Notice {
	return &Notice{
		Kind:        NoticeValidation,
		Title:       "Invalid email address",
		Description: "Please enter a valid email address.",
	}
}

func NoticeRegistrationUsed() *Notice {
	return &Notice{
		Kind:        NoticeDuplicate,
		Title:       "Registration already used",
		Description: "A discount code has already been issued for this vehicle registration.",
	}
}

func NoticeDatabaseError() *Notice {
	return &Notice{
		Kind:        NoticePersistence,
		Title:       "Database error",
		Description: "We couldn't save your details right now. Please try again in a moment.",
	}
}

func NoticeSomethingWentWrong() *Notice {
	return &Notice{
		Kind:        NoticeUnexpected,
		Title:       "Something went wrong",
		Description: "Please try again or contact our support team.",
	}
}

func NoticeCodeIssued() *Notice {
	return &Notice{
		Kind:        NoticeSuccess,
		Title:       "Success!",
		Description: "Your exclusive discount code has been generated and sent to your email.",
	}
}

func NoticeScreenshotInstead() *Notice {
	return &Notice{
		Kind:        NoticeExport,
		Title:       "Couldn't save the image",
		Description: "Please take a screenshot of your code instead.",
	}
}

func NoticeStillProcessing() *Notice {
	return &Notice{
		Kind:        NoticeBusy,
		Title:       "Still working on it",
		Description: "Your previous request is being processed. Please wait a moment.",
	}
}
