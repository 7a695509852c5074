// audio/device_darwin.go
// Copyright(c) 2022-2025 vice contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

//go:build darwin

package audio

/*
#cgo darwin CFLAGS: -x objective-c
#cgo darwin LDFLAGS: -framework AVFoundation

#import <AVFoundation/AVFoundation.h>

// Returns: 0=NotDetermined, 1=Restricted, 2=Denied, 3=Authorized
// (matches AVAuthorizationStatus enum values)
int scribeMicAuthStatus() {
    AVAuthorizationStatus status = [AVCaptureDevice authorizationStatusForMediaType:AVMediaTypeAudio];
    return (int)status;
}

// Shows the permission dialog asynchronously; does not wait for the result.
void scribeRequestMicAccess() {
    [AVCaptureDevice requestAccessForMediaType:AVMediaTypeAudio completionHandler:^(BOOL granted) {
        // Caller re-checks status later; result isn't needed here.
    }];
}
*/
import "C"

// MicAuthStatus mirrors the macOS AVAuthorizationStatus values so the rest
// of the app can treat permission state uniformly across platforms.
type MicAuthStatus int

const (
	MicAuthNotDetermined MicAuthStatus = 0
	MicAuthRestricted    MicAuthStatus = 1
	MicAuthDenied        MicAuthStatus = 2
	MicAuthAuthorized    MicAuthStatus = 3
)

func (s MicAuthStatus) String() string {
	switch s {
	case MicAuthNotDetermined:
		return "NotDetermined"
	case MicAuthRestricted:
		return "Restricted"
	case MicAuthDenied:
		return "Denied"
	case MicAuthAuthorized:
		return "Authorized"
	default:
		return "Unknown"
	}
}

// MicAuthorizationStatus returns the current microphone authorization status.
func MicAuthorizationStatus() MicAuthStatus {
	return MicAuthStatus(C.scribeMicAuthStatus())
}

// RequestMicAccess triggers the microphone permission dialog asynchronously.
// Callers should poll MicAuthorizationStatus again afterward.
func RequestMicAccess() {
	C.scribeRequestMicAccess()
}
