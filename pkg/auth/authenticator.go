// Package auth authenticates joining online-mode players with the
// session service and holds the server's encryption keypair.
package auth

import (
	"bytes"
	"context"
	"crypto/rand"
	"crypto/rsa"
	"crypto/sha1"
	"crypto/x509"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/go-logr/logr"

	"github.com/quarrymc/quarry/pkg/util/uuid"
)

// Authenticator is an online-mode user authenticator.
type Authenticator interface {
	// PublicKey returns the public key encoded in ASN.1 DER form.
	PublicKey() []byte
	// NewVerifyToken returns a fresh random verify token.
	NewVerifyToken() ([]byte, error)
	// Verify verifies the "verify token" sent by a joining client.
	Verify(encryptedVerifyToken, actualVerifyToken []byte) (equal bool, err error)
	// DecryptSharedSecret decrypts the shared secret sent by the client.
	DecryptSharedSecret(encrypted []byte) (decrypted []byte, err error)
	// GenerateServerID generates the server id to be used with AuthenticateJoin.
	GenerateServerID(decryptedSharedSecret []byte) (serverID string, err error)
	// AuthenticateJoin authenticates a joining user. The ip is optional.
	AuthenticateJoin(ctx context.Context, serverID, username, ip string) (Response, error)
}

// Response is the authentication response.
type Response interface {
	OnlineMode() bool // Whether the user is in online mode
	// GameProfile extracts the GameProfile from an authenticated client.
	// Errors if OnlineMode is false.
	GameProfile() (*GameProfile, error)
}

// GameProfile is the authenticated profile of an online-mode player.
type GameProfile struct {
	ID         uuid.UUID  `json:"id"`
	Name       string     `json:"name"`
	Properties []Property `json:"properties"`
}

// Property is a signed profile property, e.g. the skin textures.
type Property struct {
	Name      string `json:"name"`
	Value     string `json:"value"`
	Signature string `json:"signature,omitempty"`
}

const defaultHasJoinedEndpoint = `https://sessionserver.mojang.com/session/minecraft/hasJoined`

var defaultHasJoinedBaseURL, _ = url.Parse(defaultHasJoinedEndpoint)

// HasJoinedURLFn returns the url to authenticate a joining
// online mode user. The userIP is optional.
type HasJoinedURLFn func(serverID, username, userIP string) string

// DefaultHasJoinedURL returns the default hasJoined URL for the
// given serverID and username. The userIP is optional.
func DefaultHasJoinedURL(serverID, username, userIP string) string {
	return buildHasJoinedURL(defaultHasJoinedBaseURL, serverID, username, userIP)
}

// CustomHasJoinedURL returns a HasJoinedURLFn using the given baseURL
// instead of the default official session service.
func CustomHasJoinedURL(baseURL *url.URL) HasJoinedURLFn {
	if baseURL == nil {
		baseURL = defaultHasJoinedBaseURL
	}
	return func(serverID, username, userIP string) string {
		return buildHasJoinedURL(baseURL, serverID, username, userIP)
	}
}

func buildHasJoinedURL(baseURL *url.URL, serverID, username, userIP string) string {
	query := url.Values{}
	query.Set("serverId", serverID)
	query.Set("username", username)
	if userIP != "" {
		query.Set("ip", userIP)
	}
	return baseURL.ResolveReference(&url.URL{RawQuery: query.Encode()}).String()
}

// DefaultPrivateKeyBits is the default bit size of a generated private key.
const DefaultPrivateKeyBits = 1024

// VerifyTokenLen is the byte length of a generated verify token.
const VerifyTokenLen = 4

// Options to create a new Authenticator.
type Options struct {
	// HasJoinedURLFn allows an authentication url other than the
	// official "hasJoined" endpoint. If not set, DefaultHasJoinedURL
	// is used.
	HasJoinedURLFn HasJoinedURLFn
	// The server's private key. If none is set, a new one is generated.
	PrivateKey *rsa.PrivateKey
	// If PrivateKey is not set, the bit size of a generated private key.
	// The default is DefaultPrivateKeyBits.
	PrivateKeyBits int
	// The http client to query the session service.
	// If none is set, a new one is created.
	Client *http.Client
}

// New returns a new Authenticator.
func New(options Options) (Authenticator, error) {
	var err error
	private := options.PrivateKey
	if private == nil {
		bits := options.PrivateKeyBits
		if bits == 0 {
			bits = DefaultPrivateKeyBits
		}
		private, err = rsa.GenerateKey(rand.Reader, bits)
		if err != nil {
			return nil, fmt.Errorf("error generating private key: %w", err)
		}
	}

	public, err := x509.MarshalPKIXPublicKey(private.Public())
	if err != nil {
		return nil, fmt.Errorf("error encoding public key to PKIX, ASN.1 DER: %w", err)
	}

	private.Precompute()

	cli := options.Client
	if cli == nil {
		cli = &http.Client{Timeout: time.Second * 10}
	}

	hasJoinedURLFn := options.HasJoinedURLFn
	if hasJoinedURLFn == nil {
		hasJoinedURLFn = DefaultHasJoinedURL
	}

	return &authenticator{
		private:        private,
		public:         public,
		cli:            cli,
		hasJoinedURLFn: hasJoinedURLFn,
	}, nil
}

type authenticator struct {
	private        *rsa.PrivateKey
	public         []byte // ASN.1 DER form encoded
	cli            *http.Client
	hasJoinedURLFn HasJoinedURLFn
}

var _ Authenticator = (*authenticator)(nil)

func (a *authenticator) PublicKey() []byte {
	return a.public
}

func (a *authenticator) NewVerifyToken() ([]byte, error) {
	token := make([]byte, VerifyTokenLen)
	if _, err := rand.Read(token); err != nil {
		return nil, fmt.Errorf("error generating verify token: %w", err)
	}
	return token, nil
}

func (a *authenticator) Verify(encryptedVerifyToken, actualVerifyToken []byte) (bool, error) {
	decryptedVerifyToken, err := rsa.DecryptPKCS1v15(rand.Reader, a.private, encryptedVerifyToken)
	if err != nil {
		return false, fmt.Errorf("error decrypting verify token: %w", err)
	}
	return bytes.Equal(decryptedVerifyToken, actualVerifyToken), nil
}

func (a *authenticator) DecryptSharedSecret(encrypted []byte) (decrypted []byte, err error) {
	return rsa.DecryptPKCS1v15(rand.Reader, a.private, encrypted)
}

func (a *authenticator) AuthenticateJoin(ctx context.Context, serverID, username, ip string) (Response, error) {
	hasJoinedURL := a.hasJoinedURLFn(serverID, username, ip)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, hasJoinedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("error creating authentication request: %w", err)
	}

	log := logr.FromContextOrDiscard(ctx).V(1).WithName("authnJoin")
	log.Info("authenticating user against sessionserver", "url", hasJoinedURL)

	start := time.Now()
	resp, err := a.cli.Do(req)
	if err != nil {
		return nil, fmt.Errorf("error authenticating join with sessionserver: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("error reading response body: %w", err)
	}

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized:
		// Player has an invalid/outdated session auth token and
		// should restart the game or re-login.
	case http.StatusNoContent:
		log.Info("sessionserver could not find user, potentially offline mode")
	default:
		return nil, fmt.Errorf("got unexpected status code (%d) from sessionserver", resp.StatusCode)
	}

	onlineMode := resp.StatusCode == http.StatusOK && len(body) != 0

	log.Info("user authenticated against sessionserver",
		"onlineMode", onlineMode,
		"time", time.Since(start).String(),
		"statusCode", resp.StatusCode)

	return &response{
		onlineMode: onlineMode,
		body:       body,
	}, nil
}

func (a *authenticator) GenerateServerID(decryptedSharedSecret []byte) (string, error) {
	h := sha1.New()
	if _, err := h.Write(decryptedSharedSecret); err != nil {
		return "", fmt.Errorf("error writing sha1: %w", err)
	}
	if _, err := h.Write(a.public); err != nil {
		return "", fmt.Errorf("error writing sha1: %w", err)
	}
	hash := h.Sum(nil)

	var s strings.Builder
	// Check for negative hash
	if (hash[0] & 0x80) == 0x80 {
		hash = twosComplement(hash)
		s.WriteRune('-')
	}
	s.WriteString(strings.TrimLeft(hex.EncodeToString(hash), "0"))
	return s.String(), nil
}

// big endian!
func twosComplement(p []byte) []byte {
	carry := true
	for i := len(p) - 1; i >= 0; i-- {
		p[i] = ^p[i]
		if carry {
			carry = p[i] == 0xff
			p[i]++
		}
	}
	return p
}

type response struct {
	onlineMode bool

	once sync.Once // unmarshal body once
	body []byte

	gp  *GameProfile
	err error
}

func (r *response) OnlineMode() bool { return r.onlineMode }

func (r *response) GameProfile() (*GameProfile, error) {
	r.once.Do(func() {
		r.gp, r.err = r.gameProfile()
		r.body = nil
	})
	return r.gp, r.err
}

func (r *response) gameProfile() (*GameProfile, error) {
	if r == nil || !r.onlineMode {
		return nil, errors.New("no GameProfile for offline mode user")
	}
	var p GameProfile
	if err := json.Unmarshal(r.body, &p); err != nil {
		return nil, fmt.Errorf("error unmarshaling GameProfile: %w", err)
	}
	if p.Name == "" {
		return nil, errors.New("response body misses username")
	}
	return &p, nil
}
