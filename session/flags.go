package session

import (
	"github.com/labstack/echo/v4"
)

const (
	verificationNoticeKey = "_verification_notice_shown"
	deviceKey             = "_device"
)

// MarkVerificationNoticeShown records that this device has already seen the
// "please verify your email" notice, so it is shown at most once per device.
func MarkVerificationNoticeShown(c echo.Context) {
	manager := GetManager(c)
	if manager == nil {
		return
	}
	manager.Put(c.Request().Context(), verificationNoticeKey, true)
}

func VerificationNoticeShown(c echo.Context) bool {
	manager := GetManager(c)
	if manager == nil {
		return false
	}
	return manager.GetBool(c.Request().Context(), verificationNoticeKey)
}

// SetDevice stores a short human-readable device summary for the session,
// recorded at sign-in.
func SetDevice(c echo.Context, device string) {
	manager := GetManager(c)
	if manager == nil {
		return
	}
	manager.Put(c.Request().Context(), deviceKey, device)
}

func GetDevice(c echo.Context) string {
	manager := GetManager(c)
	if manager == nil {
		return ""
	}
	return manager.GetString(c.Request().Context(), deviceKey)
}
