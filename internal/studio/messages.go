package studio

import (
	"golang.org/x/text/language"
)

// Notice codes surfaced to the view.
const (
	CodeInvalidEdit        = "invalid_edit"
	CodeInvalidVideo       = "invalid_video"
	CodeCredentialRequired = "credential_required"
	CodeEditFailed         = "edit_failed"
	CodeVideoFailed        = "video_failed"
	CodeNoResult           = "no_result"
	CodeBusy               = "busy"
	CodeInvalidChat        = "invalid_chat"
	CodeChatFailed         = "chat_failed"
	CodeStylistGreeting    = "stylist_greeting"
	CodeStyleTipFallback   = "style_tip_fallback"
)

// Notice is a localized, user-facing message.
type Notice struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

var supportedLocales = []language.Tag{language.English, language.Indonesian}

var catalog = map[string]map[string]string{
	"en": {
		CodeInvalidEdit:        "Please upload an image and describe the edit.",
		CodeInvalidVideo:       "Please provide a prompt or an image.",
		CodeCredentialRequired: "Please select an API key to continue.",
		CodeEditFailed:         "Something went wrong with the image editor.",
		CodeVideoFailed:        "Video generation failed. Please try again.",
		CodeNoResult:           "The editor did not return an image. Try a different instruction.",
		CodeBusy:               "Finish selecting your API key before starting another video.",
		CodeInvalidChat:        "Please type a message for the stylist.",
		CodeChatFailed:         "I'm having a bit of trouble connecting to the styling studio right now. Please try again in a moment.",
		CodeStylistGreeting:    "Hello! I am your personal stylist at Valvaire. Looking for something specific or need style advice?",
		CodeStyleTipFallback:   "Pair this with confidence and simple accessories.",
	},
	"id": {
		CodeInvalidEdit:        "Unggah gambar dan jelaskan perubahan yang diinginkan.",
		CodeInvalidVideo:       "Masukkan prompt atau gambar.",
		CodeCredentialRequired: "Pilih API key untuk melanjutkan.",
		CodeEditFailed:         "Terjadi kesalahan pada editor gambar.",
		CodeVideoFailed:        "Pembuatan video gagal. Silakan coba lagi.",
		CodeNoResult:           "Editor tidak mengembalikan gambar. Coba instruksi lain.",
		CodeBusy:               "Selesaikan pemilihan API key sebelum membuat video lain.",
		CodeInvalidChat:        "Tulis pesan untuk stylist.",
		CodeChatFailed:         "Studio styling sedang sulit dihubungi. Silakan coba lagi sebentar lagi.",
		CodeStylistGreeting:    "Halo! Saya stylist pribadi Anda di Valvaire. Sedang mencari sesuatu atau butuh saran gaya?",
		CodeStyleTipFallback:   "Padukan dengan percaya diri dan aksesori sederhana.",
	},
}

// Messages resolves notice text for a locale.
type Messages struct {
	matcher language.Matcher
}

func NewMessages() *Messages {
	return &Messages{matcher: language.NewMatcher(supportedLocales)}
}

// Locale maps Accept-Language style input to a supported locale code.
func (m *Messages) Locale(preferred ...string) string {
	_, idx := language.MatchStrings(m.matcher, preferred...)
	if idx == 1 {
		return "id"
	}
	return "en"
}

func (m *Messages) Notice(locale, code string) Notice {
	texts, ok := catalog[locale]
	if !ok {
		texts = catalog["en"]
	}
	msg, ok := texts[code]
	if !ok {
		msg = catalog["en"][code]
	}
	return Notice{Code: code, Message: msg}
}

// FromError picks the notice for a failed job of the given kind. The
// outermost kind decides, so an auth failure that was reclassified as a
// request failure reads as one.
func (m *Messages) FromError(locale string, kind Kind, err error) Notice {
	switch KindOf(err) {
	case ErrInvalidInput:
		if kind == KindEdit {
			return m.Notice(locale, CodeInvalidEdit)
		}
		return m.Notice(locale, CodeInvalidVideo)
	case ErrBusy:
		return m.Notice(locale, CodeBusy)
	case ErrAuthRequired:
		return m.Notice(locale, CodeCredentialRequired)
	}
	if kind == KindEdit {
		return m.Notice(locale, CodeEditFailed)
	}
	return m.Notice(locale, CodeVideoFailed)
}

// ChatNotice picks the notice for a failed stylist chat.
func (m *Messages) ChatNotice(locale string, err error) Notice {
	if KindOf(err) == ErrInvalidInput {
		return m.Notice(locale, CodeInvalidChat)
	}
	return m.Notice(locale, CodeChatFailed)
}
