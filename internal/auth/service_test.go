package auth_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/onsi/ginkgo/v2"
	"github.com/onsi/gomega"
	"golang.org/x/crypto/bcrypt"

	"github.com/mechmaster/subscription-management/internal"
	"github.com/mechmaster/subscription-management/internal/auth"
)

func TestAuth(t *testing.T) {
	gomega.RegisterFailHandler(ginkgo.Fail)
	ginkgo.RunSpecs(t, "Auth Module Suite")
}

type mockUserRepo struct {
	passwordHash    string
	userID          string
	getPasswordErr  error
	createUserErr   error
	createdUser     *internal.User
	lastCreateEmail string
	lastCreateHash  string
	permissionsUser *internal.User
	permissionsErr  error
}

func (m *mockUserRepo) GetPasswordForEmail(email string) (string, string, error) {
	if m.getPasswordErr != nil {
		return "", "", m.getPasswordErr
	}
	return m.passwordHash, m.userID, nil
}

func (m *mockUserRepo) CreateUser(name, email, contact, passwordHash string) (*internal.User, error) {
	m.lastCreateEmail = email
	m.lastCreateHash = passwordHash
	if m.createUserErr != nil {
		return nil, m.createUserErr
	}
	return m.createdUser, nil
}

func (m *mockUserRepo) GetUserWithPermissions(userID int64) (*internal.User, error) {
	if m.permissionsErr != nil {
		return nil, m.permissionsErr
	}
	return m.permissionsUser, nil
}

var _ = ginkgo.Describe("AuthService", func() {
	var (
		repo     *mockUserRepo
		tokenGen *auth.JWTTokenGenerator
		service  *auth.Service
	)

	ginkgo.BeforeEach(func() {
		repo = &mockUserRepo{}
		tokenGen = auth.NewJWTTokenGenerator("access-secret", "refresh-secret", 15*time.Minute, 7*24*time.Hour)
		service = auth.NewService(repo, tokenGen, bcrypt.MinCost)
	})

	ginkgo.Describe("Register", func() {
		ginkgo.It("hashes the password and creates the account", func() {
			repo.createdUser = &internal.User{ID: 1, Email: "new@mechmaster.in", Name: "New User"}

			user, err := service.Register(auth.RegisterDTO{
				Name:     "New User",
				Email:    "new@mechmaster.in",
				Contact:  "9876543210",
				Password: "correct-horse",
			})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(user.ID).To(gomega.Equal(int64(1)))
			gomega.Expect(repo.lastCreateHash).ToNot(gomega.Equal("correct-horse"))
			gomega.Expect(auth.VerifyPassword(repo.lastCreateHash, "correct-horse")).To(gomega.Succeed())
		})

		ginkgo.It("rejects a short password before touching the repository", func() {
			_, err := service.Register(auth.RegisterDTO{
				Name:     "New User",
				Email:    "new@mechmaster.in",
				Password: "short",
			})

			gomega.Expect(err).To(gomega.BeAssignableToTypeOf(auth.ValidationError{}))
			gomega.Expect(repo.lastCreateEmail).To(gomega.BeEmpty())
		})

		ginkgo.It("rejects a missing name", func() {
			_, err := service.Register(auth.RegisterDTO{
				Email:    "new@mechmaster.in",
				Password: "correct-horse",
			})

			gomega.Expect(err).To(gomega.BeAssignableToTypeOf(auth.ValidationError{}))
		})

		ginkgo.It("surfaces a duplicate email from the repository", func() {
			repo.createUserErr = auth.ErrEmailTaken

			_, err := service.Register(auth.RegisterDTO{
				Name:     "New User",
				Email:    "taken@mechmaster.in",
				Password: "correct-horse",
			})

			gomega.Expect(err).To(gomega.MatchError(auth.ErrEmailTaken))
		})
	})

	ginkgo.Describe("Authenticate", func() {
		ginkgo.BeforeEach(func() {
			hash, err := auth.HashPassword("correct-horse", bcrypt.MinCost)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			repo.passwordHash = hash
			repo.userID = "42"
		})

		ginkgo.It("returns a token pair for valid credentials", func() {
			tokens, err := service.Authenticate(auth.LoginDTO{
				Email:    "member@mechmaster.in",
				Password: "correct-horse",
			})

			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(tokens.AccessToken).ToNot(gomega.BeEmpty())
			gomega.Expect(tokens.RefreshToken).ToNot(gomega.BeEmpty())

			claims, err := tokenGen.ValidateToken(tokens.AccessToken)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(claims.UserID).To(gomega.Equal("42"))
			gomega.Expect(claims.Email).To(gomega.Equal("member@mechmaster.in"))
		})

		ginkgo.It("rejects a wrong password", func() {
			_, err := service.Authenticate(auth.LoginDTO{
				Email:    "member@mechmaster.in",
				Password: "wrong-password",
			})

			gomega.Expect(err).To(gomega.MatchError(auth.ErrInvalidCredentials))
		})

		ginkgo.It("rejects an unknown email without revealing why", func() {
			repo.getPasswordErr = auth.ErrInvalidCredentials

			_, err := service.Authenticate(auth.LoginDTO{
				Email:    "nobody@mechmaster.in",
				Password: "correct-horse",
			})

			gomega.Expect(err).To(gomega.MatchError(auth.ErrInvalidCredentials))
		})

		ginkgo.It("rejects empty credentials", func() {
			_, err := service.Authenticate(auth.LoginDTO{})
			gomega.Expect(err).To(gomega.BeAssignableToTypeOf(auth.ValidationError{}))
		})
	})

	ginkgo.Describe("RefreshTokens", func() {
		ginkgo.It("issues a fresh pair from a valid refresh token", func() {
			refreshToken, err := tokenGen.GenerateRefreshToken("42", "member@mechmaster.in")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			tokens, err := service.RefreshTokens(refreshToken)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			claims, err := tokenGen.ValidateToken(tokens.AccessToken)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(claims.UserID).To(gomega.Equal("42"))
		})

		ginkgo.It("rejects garbage input", func() {
			_, err := service.RefreshTokens("not-a-token")
			gomega.Expect(err).To(gomega.MatchError(auth.ErrInvalidToken))
		})
	})

	ginkgo.Describe("ValidateAccessToken", func() {
		ginkgo.It("accepts a token it just signed", func() {
			token, err := tokenGen.GenerateAccessToken("42", "member@mechmaster.in")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			claims, err := service.ValidateAccessToken(token)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())
			gomega.Expect(claims.Subject).To(gomega.Equal("42"))
		})

		ginkgo.It("rejects a token signed with a different secret", func() {
			other := auth.NewJWTTokenGenerator("some-other-secret", "another", 15*time.Minute, 7*24*time.Hour)
			token, err := other.GenerateAccessToken("42", "member@mechmaster.in")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.ValidateAccessToken(token)
			gomega.Expect(err).To(gomega.MatchError(auth.ErrInvalidToken))
		})

		ginkgo.It("rejects a token without an exp claim", func() {
			claims := &auth.Claims{
				UserID: "42",
				Email:  "member@mechmaster.in",
				RegisteredClaims: jwt.RegisteredClaims{
					IssuedAt: jwt.NewNumericDate(time.Now()),
					Subject:  "42",
				},
			}
			token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("access-secret"))
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.ValidateAccessToken(token)
			gomega.Expect(err).To(gomega.MatchError(auth.ErrInvalidToken))
		})

		ginkgo.It("rejects an unsigned token without an exp claim", func() {
			token := jwt.NewWithClaims(jwt.SigningMethodNone, &auth.Claims{UserID: "42"})
			tokenString, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.ValidateAccessToken(tokenString)
			gomega.Expect(err).To(gomega.MatchError(auth.ErrInvalidToken))
		})

		ginkgo.It("rejects an expired token", func() {
			shortLived := auth.NewJWTTokenGenerator("access-secret", "refresh-secret", -time.Minute, 7*24*time.Hour)
			token, err := shortLived.GenerateAccessToken("42", "member@mechmaster.in")
			gomega.Expect(err).ToNot(gomega.HaveOccurred())

			_, err = service.ValidateAccessToken(token)
			gomega.Expect(err).To(gomega.MatchError(auth.ErrTokenExpired))
		})
	})
})
