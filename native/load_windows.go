//go:build windows

package native

import "syscall"

// DefaultPath is where the RTSA suite installs the API library.
const DefaultPath = `C:\Program Files\Aaronia AG\Aaronia RTSA-Suite PRO\AaroniaRTSAAPI.dll`

func dlopen(path string) (uintptr, error) {
	h, err := syscall.LoadLibrary(path)
	return uintptr(h), err
}

func dlsym(handle uintptr, name string) (uintptr, error) {
	return syscall.GetProcAddress(syscall.Handle(handle), name)
}

func dlclose(handle uintptr) error {
	return syscall.FreeLibrary(syscall.Handle(handle))
}
