package provider

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestUnsupportedError(t *testing.T) {
	err := NewUnsupportedError("ISPConfig 3", "username changes")

	assert.True(t, errors.Is(err, ErrUnsupported))
	assert.Contains(t, err.Error(), "username changes")

	var ue *UnsupportedError
	assert.True(t, errors.As(fmt.Errorf("wrapped: %w", err), &ue))
	assert.Equal(t, "username changes", ue.Action)
}

func TestWrapAction(t *testing.T) {
	assert.Nil(t, WrapAction("dns_zone_add", nil))

	err := WrapAction("dns_zone_add", fmt.Errorf("boom: %w", ErrTransport))
	assert.True(t, errors.Is(err, ErrTransport))
	assert.Equal(t, "dns_zone_add", FailedAction(err))

	same := WrapAction("dns_zone_add", err)
	assert.Same(t, err, same)

	assert.Equal(t, "", FailedAction(errors.New("plain")))
}

func TestFailedActionInnermost(t *testing.T) {
	login := WrapAction("login", fmt.Errorf("%w: bad", ErrAuthentication))

	// 外层动作不覆盖已记录的动作
	outer := WrapAction("client_get_by_username", login)
	assert.Same(t, login, outer)
	assert.Equal(t, "login", FailedAction(fmt.Errorf("开通账户失败: %w", outer)))

	nested := &ActionError{Action: "client_add", Err: fmt.Errorf("x: %w", login)}
	assert.Equal(t, "login", FailedAction(nested))
	assert.True(t, errors.Is(nested, ErrAuthentication))
}

func TestPackageCustomValue(t *testing.T) {
	var nilPkg *Package
	_, ok := nilPkg.CustomValue("language")
	assert.False(t, ok)

	pkg := &Package{CustomValues: map[string]string{"language": "de", "vat_id": ""}}
	v, ok := pkg.CustomValue("language")
	assert.True(t, ok)
	assert.Equal(t, "de", v)

	_, ok = pkg.CustomValue("vat_id")
	assert.False(t, ok)
}

func TestClientFullName(t *testing.T) {
	assert.Equal(t, "Jane Doe", (&Client{FirstName: "Jane", LastName: "Doe"}).FullName())
	assert.Equal(t, "Jane", (&Client{FirstName: "Jane"}).FullName())
}
