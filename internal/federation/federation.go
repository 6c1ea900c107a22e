package federation

import (
	"encoding/json"
	"strings"
)

const (
	ProviderGoogle = "google"
	ProviderKakao  = "kakao"
)

// Identity is the canonical record every provider payload is normalized to.
type Identity struct {
	Provider   string
	ProviderID string
	Email      string
	Name       string
}

// GoogleProfile mirrors the fields delivered by the Google OAuth profile.
type GoogleProfile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Picture   string `json:"picture"`
}

func (p GoogleProfile) Identity() Identity {
	return Identity{
		Provider:   ProviderGoogle,
		ProviderID: p.ID,
		Email:      p.Email,
		Name:       strings.TrimSpace(p.FirstName + " " + p.LastName),
	}
}

// KakaoProfile mirrors the Kakao callback payload. Kakao sends numeric ids,
// hence the json.Number.
type KakaoProfile struct {
	ID           json.Number `json:"id"`
	Username     string      `json:"username"`
	Email        string      `json:"email"`
	ProfileImage string      `json:"profileImage"`
}

func (p KakaoProfile) Identity() Identity {
	return Identity{
		Provider:   ProviderKakao,
		ProviderID: p.ID.String(),
		Email:      p.Email,
		Name:       p.Username,
	}
}
