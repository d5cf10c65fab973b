package main

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steve-ongera/phoneplace-kenya/internal/backendtest"
)

func setupCLI(t *testing.T) *backendtest.Backend {
	t.Helper()
	b := backendtest.Start(t)
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("STOREFRONT_API_URL", b.URL())
	t.Setenv("STOREFRONT_TOKENS_PATH", filepath.Join(dir, "tokens.db"))
	t.Setenv("STOREFRONT_LOG_LEVEL", "error")
	t.Setenv("STOREFRONT_LOG_COLOR", "false")
	return b
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root, cleanup := rootCmd()
	defer cleanup()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestCLI_BrowseProducts(t *testing.T) {
	setupCLI(t)

	out, err := run(t, "products", "--brand", "xiaomi")
	require.NoError(t, err)
	assert.Contains(t, out, "Products (2 found, page 1 of 1)")
	assert.Contains(t, out, backendtest.RedmiNote13)
	assert.Contains(t, out, "KSh 1,000")

	out, err = run(t, "product", backendtest.IPhone15)
	require.NoError(t, err)
	assert.Contains(t, out, "iPhone 15")
	assert.Contains(t, out, "KSh 115,000")

	_, err = run(t, "product", "nokia-3310")
	assert.Error(t, err)
}

func TestCLI_HomeShowsBrandRows(t *testing.T) {
	setupCLI(t)

	out, err := run(t, "home")
	require.NoError(t, err)
	for _, title := range []string{"Featured", "New Arrivals", "Xiaomi Deals", "iPhone Deals", "Samsung Galaxy"} {
		assert.Contains(t, out, title)
	}
	assert.Contains(t, out, "iPhone 15 is here")
}

func TestCLI_RegisterShopAndCheckout(t *testing.T) {
	setupCLI(t)

	out, err := run(t, "register", "--email", "jane@example.com", "--password", "s3cret-pass",
		"--first-name", "Jane", "--last-name", "Wanjiru", "--phone", "0712345678")
	require.NoError(t, err)
	assert.Contains(t, out, "Account created! Welcome to PhonePlace Kenya")

	out, err = run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Jane Wanjiru <jane@example.com>")

	out, err = run(t, "cart", "add", backendtest.XiaomiCharger, "--qty", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "Added to cart!")
	assert.Contains(t, out, "Cart (2)")
	assert.Contains(t, out, "KSh 2,000")

	_, err = run(t, "checkout", "--method", "cash")
	assert.ErrorContains(t, err, "--address")

	out, err = run(t, "checkout", "--address", "Moi Avenue 12", "--city", "Nairobi", "--phone", "0712345678", "--method", "cash")
	require.NoError(t, err)
	assert.Contains(t, out, "Order PPK-")
	assert.Contains(t, out, "KSh 2,200")

	out, err = run(t, "orders")
	require.NoError(t, err)
	assert.Contains(t, out, "PPK-")

	out, err = run(t, "cart")
	require.NoError(t, err)
	assert.Contains(t, out, "Your cart is empty")

	out, err = run(t, "logout")
	require.NoError(t, err)
	assert.Contains(t, out, "Logged out successfully")

	out, err = run(t, "whoami")
	require.NoError(t, err)
	assert.Contains(t, out, "Not logged in")
}

func TestCLI_GuestRestrictions(t *testing.T) {
	setupCLI(t)

	_, err := run(t, "orders")
	assert.ErrorIs(t, err, errNotLoggedIn)

	out, err := run(t, "wishlist", "toggle", backendtest.OppoA78)
	require.NoError(t, err)
	assert.Contains(t, out, "Please login to save items")

	_, err = run(t, "checkout", "--address", "x", "--city", "y", "--phone", "1")
	assert.Error(t, err)
}
