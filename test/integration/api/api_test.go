// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 TaskHub Contributors

//go:build integration

package api_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	. "github.com/onsi/ginkgo/v2" //nolint:revive // ginkgo convention
	. "github.com/onsi/gomega"    //nolint:revive // gomega convention
)

// apiResponse mirrors the response envelope with the data left raw so
// each spec can decode its own payload shape.
type apiResponse struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
}

type userData struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
}

type authData struct {
	User  userData `json:"user"`
	Token string   `json:"token"`
}

type taskData struct {
	ID          string     `json:"id"`
	Owner       string     `json:"owner"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     *time.Time `json:"dueDate"`
	CreatedAt   time.Time  `json:"createdAt"`
}

// doRequest sends a JSON request to the running API server and decodes
// the envelope. A nil body sends no payload.
func doRequest(method, path, token string, body any) (int, apiResponse) {
	GinkgoHelper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		Expect(err).NotTo(HaveOccurred())
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, env.baseURL+path, reader)
	Expect(err).NotTo(HaveOccurred())
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := http.DefaultClient.Do(req)
	Expect(err).NotTo(HaveOccurred())
	defer func() { _ = resp.Body.Close() }()

	var envelope apiResponse
	Expect(json.NewDecoder(resp.Body).Decode(&envelope)).To(Succeed())
	return resp.StatusCode, envelope
}

func decodeData[T any](raw json.RawMessage) T {
	GinkgoHelper()
	var out T
	Expect(json.Unmarshal(raw, &out)).To(Succeed())
	return out
}

// registerUser creates an account and returns its token and user data.
func registerUser(name, email, password string) authData {
	GinkgoHelper()

	status, envelope := doRequest(http.MethodPost, "/api/auth/register", "", map[string]string{
		"name":     name,
		"email":    email,
		"password": password,
	})
	Expect(status).To(Equal(http.StatusCreated))
	Expect(envelope.Success).To(BeTrue())
	return decodeData[authData](envelope.Data)
}

var _ = Describe("Health", func() {
	It("reports a connected database", func() {
		status, envelope := doRequest(http.MethodGet, "/api/health", "", nil)
		Expect(status).To(Equal(http.StatusOK))
		Expect(envelope.Success).To(BeTrue())

		data := decodeData[map[string]any](envelope.Data)
		Expect(data["status"]).To(Equal("OK"))
		Expect(data["database"]).To(Equal("Connected"))
	})
})

var _ = Describe("Registration and login", func() {
	It("registers a new account and returns a working token", func() {
		account := registerUser("Alice", "alice-register@example.com", "sw0rdfish!")

		Expect(account.Token).NotTo(BeEmpty())
		Expect(account.User.ID).To(HaveLen(26))
		Expect(account.User.Email).To(Equal("alice-register@example.com"))

		// The token must be usable immediately.
		status, envelope := doRequest(http.MethodGet, "/api/tasks", account.Token, nil)
		Expect(status).To(Equal(http.StatusOK))
		Expect(envelope.Success).To(BeTrue())
	})

	It("never exposes password material in responses", func() {
		status, envelope := doRequest(http.MethodPost, "/api/auth/register", "", map[string]string{
			"name":     "Bob",
			"email":    "bob-register@example.com",
			"password": "sw0rdfish!",
		})
		Expect(status).To(Equal(http.StatusCreated))

		Expect(string(envelope.Data)).NotTo(ContainSubstring("password"))
		Expect(string(envelope.Data)).NotTo(ContainSubstring("argon2"))
	})

	It("rejects a duplicate email regardless of case", func() {
		registerUser("Carol", "carol@example.com", "sw0rdfish!")

		status, envelope := doRequest(http.MethodPost, "/api/auth/register", "", map[string]string{
			"name":     "Carol Again",
			"email":    "CAROL@example.com",
			"password": "different-pass",
		})
		Expect(status).To(Equal(http.StatusConflict))
		Expect(envelope.Success).To(BeFalse())
		Expect(envelope.Message).To(Equal("Email already registered"))
	})

	It("logs in with the registered credentials", func() {
		registerUser("Dave", "dave@example.com", "sw0rdfish!")

		status, envelope := doRequest(http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "dave@example.com",
			"password": "sw0rdfish!",
		})
		Expect(status).To(Equal(http.StatusOK))
		Expect(envelope.Success).To(BeTrue())

		data := decodeData[authData](envelope.Data)
		Expect(data.Token).NotTo(BeEmpty())
		Expect(data.User.Email).To(Equal("dave@example.com"))
	})

	It("rejects bad credentials without revealing which part failed", func() {
		registerUser("Erin", "erin@example.com", "sw0rdfish!")

		wrongPassStatus, wrongPass := doRequest(http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "erin@example.com",
			"password": "not-the-password",
		})
		unknownStatus, unknown := doRequest(http.MethodPost, "/api/auth/login", "", map[string]string{
			"email":    "nobody@example.com",
			"password": "whatever-pass",
		})

		Expect(wrongPassStatus).To(Equal(http.StatusUnauthorized))
		Expect(unknownStatus).To(Equal(http.StatusUnauthorized))
		Expect(wrongPass.Message).To(Equal("Invalid credentials"))
		Expect(unknown.Message).To(Equal(wrongPass.Message))
	})
})

var _ = Describe("Task lifecycle", Ordered, func() {
	var (
		owner  authData
		taskID string
	)

	BeforeAll(func() {
		owner = registerUser("Frank", "frank@example.com", "sw0rdfish!")
	})

	It("starts with an empty task list", func() {
		status, envelope := doRequest(http.MethodGet, "/api/tasks", owner.Token, nil)
		Expect(status).To(Equal(http.StatusOK))
		Expect(decodeData[[]taskData](envelope.Data)).To(BeEmpty())
	})

	It("creates a task with defaults applied", func() {
		status, envelope := doRequest(http.MethodPost, "/api/tasks", owner.Token, map[string]string{
			"title":       "Write quarterly report",
			"description": "Numbers for Q3",
		})
		Expect(status).To(Equal(http.StatusCreated))

		created := decodeData[taskData](envelope.Data)
		Expect(created.ID).To(HaveLen(26))
		Expect(created.Owner).To(Equal(owner.User.ID))
		Expect(created.Status).To(Equal("pending"))
		Expect(created.Priority).To(Equal("medium"))
		taskID = created.ID
	})

	It("lists and fetches the created task", func() {
		status, envelope := doRequest(http.MethodGet, "/api/tasks", owner.Token, nil)
		Expect(status).To(Equal(http.StatusOK))
		tasks := decodeData[[]taskData](envelope.Data)
		Expect(tasks).To(HaveLen(1))
		Expect(tasks[0].ID).To(Equal(taskID))

		status, envelope = doRequest(http.MethodGet, "/api/tasks/"+taskID, owner.Token, nil)
		Expect(status).To(Equal(http.StatusOK))
		Expect(decodeData[taskData](envelope.Data).Title).To(Equal("Write quarterly report"))
	})

	It("filters the list by status and title pattern", func() {
		_, createEnv := doRequest(http.MethodPost, "/api/tasks", owner.Token, map[string]string{
			"title":  "Ship release notes",
			"status": "in-progress",
		})
		Expect(decodeData[taskData](createEnv.Data).Status).To(Equal("in-progress"))

		status, envelope := doRequest(http.MethodGet, "/api/tasks?status=in-progress", owner.Token, nil)
		Expect(status).To(Equal(http.StatusOK))
		tasks := decodeData[[]taskData](envelope.Data)
		Expect(tasks).To(HaveLen(1))
		Expect(tasks[0].Title).To(Equal("Ship release notes"))

		status, envelope = doRequest(http.MethodGet, "/api/tasks?search=*report*", owner.Token, nil)
		Expect(status).To(Equal(http.StatusOK))
		tasks = decodeData[[]taskData](envelope.Data)
		Expect(tasks).To(HaveLen(1))
		Expect(tasks[0].ID).To(Equal(taskID))
	})

	It("applies partial updates", func() {
		status, envelope := doRequest(http.MethodPut, "/api/tasks/"+taskID, owner.Token, map[string]string{
			"status":   "completed",
			"priority": "high",
		})
		Expect(status).To(Equal(http.StatusOK))

		updated := decodeData[taskData](envelope.Data)
		Expect(updated.Status).To(Equal("completed"))
		Expect(updated.Priority).To(Equal("high"))
		Expect(updated.Title).To(Equal("Write quarterly report"), "unset fields stay untouched")
	})

	It("deletes the task exactly once", func() {
		status, _ := doRequest(http.MethodDelete, "/api/tasks/"+taskID, owner.Token, nil)
		Expect(status).To(Equal(http.StatusOK))

		status, envelope := doRequest(http.MethodDelete, "/api/tasks/"+taskID, owner.Token, nil)
		Expect(status).To(Equal(http.StatusNotFound))
		Expect(envelope.Message).To(Equal("Task not found"))

		status, _ = doRequest(http.MethodGet, "/api/tasks/"+taskID, owner.Token, nil)
		Expect(status).To(Equal(http.StatusNotFound))
	})
})

var _ = Describe("Ownership isolation", Ordered, func() {
	var (
		alice   authData
		mallory authData
		taskID  string
	)

	BeforeAll(func() {
		alice = registerUser("Alice Owner", "alice-owner@example.com", "sw0rdfish!")
		mallory = registerUser("Mallory", "mallory@example.com", "sw0rdfish!")

		status, envelope := doRequest(http.MethodPost, "/api/tasks", alice.Token, map[string]string{
			"title": "Private plans",
		})
		Expect(status).To(Equal(http.StatusCreated))
		taskID = decodeData[taskData](envelope.Data).ID
	})

	It("hides other owners' tasks from the list", func() {
		status, envelope := doRequest(http.MethodGet, "/api/tasks", mallory.Token, nil)
		Expect(status).To(Equal(http.StatusOK))
		Expect(decodeData[[]taskData](envelope.Data)).To(BeEmpty())
	})

	It("answers 404 for another owner's task on every verb", func() {
		status, envelope := doRequest(http.MethodGet, "/api/tasks/"+taskID, mallory.Token, nil)
		Expect(status).To(Equal(http.StatusNotFound))
		Expect(envelope.Message).To(Equal("Task not found"))

		status, _ = doRequest(http.MethodPut, "/api/tasks/"+taskID, mallory.Token, map[string]string{
			"title": "Hijacked",
		})
		Expect(status).To(Equal(http.StatusNotFound))

		status, _ = doRequest(http.MethodDelete, "/api/tasks/"+taskID, mallory.Token, nil)
		Expect(status).To(Equal(http.StatusNotFound))
	})

	It("leaves the task untouched after the failed attempts", func() {
		status, envelope := doRequest(http.MethodGet, "/api/tasks/"+taskID, alice.Token, nil)
		Expect(status).To(Equal(http.StatusOK))
		Expect(decodeData[taskData](envelope.Data).Title).To(Equal("Private plans"))
	})
})

var _ = Describe("Authentication middleware", func() {
	It("rejects requests without a token", func() {
		status, envelope := doRequest(http.MethodGet, "/api/tasks", "", nil)
		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(envelope.Message).To(Equal("Not authorized"))
	})

	It("rejects garbage tokens with the same message", func() {
		status, envelope := doRequest(http.MethodGet, "/api/tasks", "not-a-real-token", nil)
		Expect(status).To(Equal(http.StatusUnauthorized))
		Expect(envelope.Message).To(Equal("Not authorized"))
	})
})
