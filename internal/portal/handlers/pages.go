package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"docbridge/internal/models"
	"docbridge/internal/portal/auth"
	"docbridge/internal/portal/gatewayclient"
	"docbridge/internal/portal/guard"
)

// Pages serves the portal's HTML surface. Handlers never touch auth state
// directly: reads go through the machine snapshot the middleware installed,
// writes go through machine operations.
type Pages struct {
	log     zerolog.Logger
	gateway *gatewayclient.Client
}

func NewPages(log zerolog.Logger, gateway *gatewayclient.Client) *Pages {
	return &Pages{
		log:     log,
		gateway: gateway,
	}
}

const machineKey = "auth_machine"

// Machine returns the state machine the session middleware attached.
func Machine(c *gin.Context) *auth.Machine {
	return c.MustGet(machineKey).(*auth.Machine)
}

// SetMachine is called by the session middleware.
func SetMachine(c *gin.Context, m *auth.Machine) {
	c.Set(machineKey, m)
}

func (p *Pages) Home(c *gin.Context) {
	c.Redirect(http.StatusFound, guard.LoginPath)
}

func (p *Pages) LoginPage(c *gin.Context) {
	c.HTML(http.StatusOK, "login.html", gin.H{})
}

func (p *Pages) Login(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")
	userType := models.UserType(c.PostForm("userType"))

	if email == "" || password == "" || !userType.Valid() {
		c.HTML(http.StatusBadRequest, "login.html", gin.H{
			"Error": "email, password and account type are required",
			"Email": email,
		})
		return
	}

	user, err := Machine(c).Login(c.Request.Context(), email, password, userType)
	if err != nil {
		c.HTML(loginErrorStatus(err), "login.html", gin.H{
			"Error": loginErrorMessage(err),
			"Email": email,
		})
		return
	}

	c.Redirect(http.StatusFound, user.UserType.DashboardPath())
}

func loginErrorStatus(err error) int {
	if errors.Is(err, auth.ErrGatewayUnavailable) {
		return http.StatusBadGateway
	}
	return http.StatusUnauthorized
}

func loginErrorMessage(err error) string {
	var rejection *auth.RejectionError
	switch {
	case errors.As(err, &rejection):
		return rejection.Message
	case errors.Is(err, auth.ErrGatewayUnavailable):
		return "the sign-in service is unreachable, please try again shortly"
	case errors.Is(err, auth.ErrSuperseded):
		return "you signed out while signing in, please try again"
	default:
		return "sign-in failed, please try again"
	}
}

func (p *Pages) SignupPage(c *gin.Context) {
	c.HTML(http.StatusOK, "signup.html", gin.H{})
}

func (p *Pages) Signup(c *gin.Context) {
	email := strings.TrimSpace(c.PostForm("email"))
	password := c.PostForm("password")

	if email == "" || password == "" {
		c.HTML(http.StatusBadRequest, "signup.html", gin.H{
			"Error": "email and password are required",
			"Email": email,
		})
		return
	}

	challenge, err := Machine(c).Signup(c.Request.Context(), email, password)
	if err != nil {
		c.HTML(http.StatusBadRequest, "signup.html", gin.H{
			"Error": loginErrorMessage(err),
			"Email": email,
		})
		return
	}

	c.HTML(http.StatusOK, "signup.html", gin.H{
		"VerificationURL": challenge.VerificationURL,
		"Email":           email,
	})
}

func (p *Pages) VerifyEmailPage(c *gin.Context) {
	c.HTML(http.StatusOK, "verify_email.html", gin.H{
		"Token": c.Query("token"),
	})
}

func (p *Pages) VerifyEmail(c *gin.Context) {
	token := strings.TrimSpace(c.PostForm("token"))
	if token == "" {
		c.HTML(http.StatusBadRequest, "verify_email.html", gin.H{
			"Error": "verification token is required",
		})
		return
	}

	if err := Machine(c).VerifyEmail(c.Request.Context(), token); err != nil {
		c.HTML(http.StatusBadRequest, "verify_email.html", gin.H{
			"Error": loginErrorMessage(err),
			"Token": token,
		})
		return
	}

	c.Redirect(http.StatusFound, guard.LoginPath)
}

func (p *Pages) Logout(c *gin.Context) {
	Machine(c).Logout()
	c.Redirect(http.StatusFound, guard.LoginPath)
}
