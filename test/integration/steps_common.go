package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/cucumber/godog"

	"github.com/wildbranch/wbl-catalog/pkg/model"
	"github.com/wildbranch/wbl-catalog/pkg/password"
	gormstore "github.com/wildbranch/wbl-catalog/pkg/server/store/gorm"
)

// StepsContext holds state shared between step definitions
type StepsContext struct {
	tc           *TestContext
	server       *ServerInstance
	ownServer    bool
	response     *http.Response
	responseBody []byte
	authToken    string
	users        map[string]*model.User
	libraries    map[string]uint
	books        map[string]uint
}

// NewStepsContext creates a new steps context
func NewStepsContext(tc *TestContext) *StepsContext {
	return &StepsContext{
		tc:        tc,
		server:    tc.Default,
		users:     make(map[string]*model.User),
		libraries: make(map[string]uint),
		books:     make(map[string]uint),
	}
}

// RegisterSteps registers all step definitions
func (s *StepsContext) RegisterSteps(sc *godog.ScenarioContext) {
	sc.Before(func(ctx context.Context, _ *godog.Scenario) (context.Context, error) {
		return ctx, s.tc.ResetData()
	})
	sc.After(func(ctx context.Context, _ *godog.Scenario, err error) (context.Context, error) {
		if s.ownServer {
			s.server.Stop()
		}
		return ctx, nil
	})

	// Background steps
	sc.Step(`^a catalog server is running$`, s.aCatalogServerIsRunning)
	sc.Step(`^a catalog server issuing tokens valid for (\d+) seconds? is running$`, s.aCatalogServerWithTTLIsRunning)
	sc.Step(`^a user "([^"]*)" with password "([^"]*)" exists$`, s.aUserExists)
	sc.Step(`^an inactive user "([^"]*)" with password "([^"]*)" exists$`, s.anInactiveUserExists)
	sc.Step(`^"([^"]*)" owns a library "([^"]*)"$`, s.ownsALibrary)
	sc.Step(`^"([^"]*)" owns a book "([^"]*)" in library "([^"]*)"$`, s.ownsABook)

	// Authentication steps
	sc.Step(`^I log in as "([^"]*)" with password "([^"]*)"$`, s.iLogIn)
	sc.Step(`^I am logged in as "([^"]*)" with password "([^"]*)"$`, s.iAmLoggedIn)
	sc.Step(`^I should receive a bearer token$`, s.iShouldReceiveABearerToken)
	sc.Step(`^I wait (\d+) seconds?$`, s.iWait)

	// Catalog steps
	sc.Step(`^I request the book "([^"]*)"$`, s.iRequestTheBook)
	sc.Step(`^I list my books$`, s.iListMyBooks)
	sc.Step(`^I delete the book "([^"]*)"$`, s.iDeleteTheBook)
	sc.Step(`^I delete the library "([^"]*)"$`, s.iDeleteTheLibrary)
	sc.Step(`^the library "([^"]*)" should still exist$`, s.theLibraryShouldStillExist)
	sc.Step(`^the library "([^"]*)" should not exist$`, s.theLibraryShouldNotExist)

	// Response steps
	sc.Step(`^the response status should be (\d+)$`, s.theResponseStatusShouldBe)
	sc.Step(`^the response detail should be "([^"]*)"$`, s.theResponseDetailShouldBe)
	sc.Step(`^the response header "([^"]*)" should be "([^"]*)"$`, s.theResponseHeaderShouldBe)
}

// Background steps

func (s *StepsContext) aCatalogServerIsRunning() error {
	// Server is already running via TestContext
	return nil
}

func (s *StepsContext) aCatalogServerWithTTLIsRunning(seconds int) error {
	cfg := DefaultServerConfig()
	cfg.AccessTokenTTL = time.Duration(seconds) * time.Second

	instance, err := StartServer(s.tc, cfg)
	if err != nil {
		return err
	}
	s.server = instance
	s.ownServer = true
	return nil
}

func (s *StepsContext) createUser(email, plaintext string, active bool) error {
	hash, err := password.NewHasher(4).Hash(plaintext)
	if err != nil {
		return err
	}
	user := &model.User{
		Username:     email,
		Email:        email,
		PasswordHash: hash,
		IsActive:     active,
	}
	if err := gormstore.NewUsersStore(s.tc.DB).CreateUser(user); err != nil {
		return fmt.Errorf("failed to create user %s: %w", email, err)
	}
	s.users[email] = user
	return nil
}

func (s *StepsContext) aUserExists(email, plaintext string) error {
	return s.createUser(email, plaintext, true)
}

func (s *StepsContext) anInactiveUserExists(email, plaintext string) error {
	return s.createUser(email, plaintext, false)
}

func (s *StepsContext) ownsALibrary(email, name string) error {
	user, ok := s.users[email]
	if !ok {
		return fmt.Errorf("unknown user %s", email)
	}
	library := &model.Library{Name: name, UserID: user.ID}
	if err := gormstore.NewLibrariesStore(s.tc.DB).CreateLibrary(library); err != nil {
		return err
	}
	s.libraries[name] = library.ID
	return nil
}

func (s *StepsContext) ownsABook(email, title, libraryName string) error {
	user, ok := s.users[email]
	if !ok {
		return fmt.Errorf("unknown user %s", email)
	}
	libraryID, ok := s.libraries[libraryName]
	if !ok {
		return fmt.Errorf("unknown library %s", libraryName)
	}
	book := &model.Book{
		Title:       title,
		Author:      "Anonymous",
		IsAvailable: true,
		LibraryID:   libraryID,
		OwnerID:     user.ID,
	}
	if err := gormstore.NewBooksStore(s.tc.DB).CreateBook(book); err != nil {
		return err
	}
	s.books[title] = book.ID
	return nil
}

// Authentication steps

func (s *StepsContext) iLogIn(email, plaintext string) error {
	body, _ := json.Marshal(map[string]string{"email": email, "password": plaintext})
	if err := s.do("POST", "/api/login/access-token", body); err != nil {
		return err
	}

	s.authToken = ""
	if s.response.StatusCode == http.StatusOK {
		var token struct {
			AccessToken string `json:"access_token"`
		}
		if err := json.Unmarshal(s.responseBody, &token); err == nil {
			s.authToken = token.AccessToken
		}
	}
	return nil
}

func (s *StepsContext) iAmLoggedIn(email, plaintext string) error {
	if err := s.iLogIn(email, plaintext); err != nil {
		return err
	}
	if s.authToken == "" {
		return fmt.Errorf("login as %s failed with status %d: %s", email, s.response.StatusCode, s.responseBody)
	}
	return nil
}

func (s *StepsContext) iShouldReceiveABearerToken() error {
	var token struct {
		AccessToken string `json:"access_token"`
		TokenType   string `json:"token_type"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.Unmarshal(s.responseBody, &token); err != nil {
		return fmt.Errorf("failed to parse token response: %w", err)
	}
	if token.AccessToken == "" {
		return fmt.Errorf("access_token is empty")
	}
	if token.TokenType != "bearer" {
		return fmt.Errorf("expected token_type bearer, got %q", token.TokenType)
	}
	if token.ExpiresIn <= 0 {
		return fmt.Errorf("expected positive expires_in, got %d", token.ExpiresIn)
	}
	return nil
}

func (s *StepsContext) iWait(seconds int) error {
	time.Sleep(time.Duration(seconds) * time.Second)
	return nil
}

// Catalog steps

func (s *StepsContext) iRequestTheBook(title string) error {
	id, ok := s.books[title]
	if !ok {
		return fmt.Errorf("unknown book %s", title)
	}
	return s.do("GET", fmt.Sprintf("/api/books/%d", id), nil)
}

func (s *StepsContext) iListMyBooks() error {
	return s.do("GET", "/api/books", nil)
}

func (s *StepsContext) iDeleteTheBook(title string) error {
	id, ok := s.books[title]
	if !ok {
		return fmt.Errorf("unknown book %s", title)
	}
	return s.do("DELETE", fmt.Sprintf("/api/books/%d", id), nil)
}

func (s *StepsContext) iDeleteTheLibrary(name string) error {
	id, ok := s.libraries[name]
	if !ok {
		return fmt.Errorf("unknown library %s", name)
	}
	return s.do("DELETE", fmt.Sprintf("/api/libraries/%d", id), nil)
}

func (s *StepsContext) countLibraries(name string) (int64, error) {
	var count int64
	err := s.tc.DB.Raw(`SELECT COUNT(*) FROM libraries WHERE id = ?`, s.libraries[name]).Scan(&count).Error
	return count, err
}

func (s *StepsContext) theLibraryShouldStillExist(name string) error {
	count, err := s.countLibraries(name)
	if err != nil {
		return err
	}
	if count == 0 {
		return fmt.Errorf("library %s does not exist", name)
	}
	return nil
}

func (s *StepsContext) theLibraryShouldNotExist(name string) error {
	count, err := s.countLibraries(name)
	if err != nil {
		return err
	}
	if count > 0 {
		return fmt.Errorf("library %s should not exist but does", name)
	}
	return nil
}

// Response steps

func (s *StepsContext) theResponseStatusShouldBe(expected int) error {
	if s.response.StatusCode != expected {
		return fmt.Errorf("expected status %d, got %d: %s", expected, s.response.StatusCode, string(s.responseBody))
	}
	return nil
}

func (s *StepsContext) theResponseDetailShouldBe(expected string) error {
	var body struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(s.responseBody, &body); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	if body.Detail != expected {
		return fmt.Errorf("expected detail %q, got %q", expected, body.Detail)
	}
	return nil
}

func (s *StepsContext) theResponseHeaderShouldBe(name, expected string) error {
	if got := s.response.Header.Get(name); got != expected {
		return fmt.Errorf("expected header %s %q, got %q", name, expected, got)
	}
	return nil
}

// do sends a request to the scenario's server with the current token
func (s *StepsContext) do(method, path string, body []byte) error {
	req, err := http.NewRequest(method, s.server.ServerURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if s.authToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.authToken)
	}

	s.response, err = s.tc.HTTPClient.Do(req)
	if err != nil {
		return err
	}

	s.responseBody, err = io.ReadAll(s.response.Body)
	_ = s.response.Body.Close()
	return err
}
