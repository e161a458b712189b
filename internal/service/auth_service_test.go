package service

import (
	"errors"
	"testing"

	"go-study-group/internal/repository"
	"go-study-group/pkg/config"
	"go-study-group/pkg/db"
	"go-study-group/pkg/logger"
)

func setupAuthService(t *testing.T) *AuthService {
	if err := config.InitTest(); err != nil {
		t.Fatalf("Failed to initialize config: %v", err)
	}
	if logger.L == nil {
		if err := logger.InitLogger(config.GlobalConfig.Log.Level, config.GlobalConfig.Log.ProductionMode); err != nil {
			t.Logf("Logger init failed (using default): %v", err)
		}
	}
	if err := db.InitDB(); err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(func() { cleanupWorkflowTables(t) })

	return NewAuthService(repository.NewUserRepository())
}

func TestRegister(t *testing.T) {
	service := setupAuthService(t)

	tests := []struct {
		name    string
		req     RegisterRequest
		wantErr error
	}{
		{
			name: "Valid registration",
			req: RegisterRequest{
				Username: "newuser",
				Password: "password123",
				Email:    "new@example.com",
			},
			wantErr: nil,
		},
		{
			name: "Duplicate username",
			req: RegisterRequest{
				Username: "newuser",
				Password: "password123",
				Email:    "other@example.com",
			},
			wantErr: ErrUsernameTaken,
		},
		{
			name: "Duplicate email",
			req: RegisterRequest{
				Username: "otheruser",
				Password: "password123",
				Email:    "new@example.com",
			},
			wantErr: ErrEmailTaken,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user, err := service.Register(tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Register() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr == nil {
				if user == nil {
					t.Fatal("Register() returned nil user")
				}
				if user.Username != tt.req.Username {
					t.Errorf("Register() got username = %v, want %v", user.Username, tt.req.Username)
				}
				if user.Password == tt.req.Password {
					t.Error("Register() stored the password in plain text")
				}
			}
		})
	}
}

func TestLogin(t *testing.T) {
	service := setupAuthService(t)

	// 先注册一个测试用户
	registerReq := RegisterRequest{
		Username: "logintest",
		Password: "password123",
		Email:    "login@example.com",
	}
	_, err := service.Register(registerReq)
	if err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	tests := []struct {
		name    string
		req     LoginRequest
		wantErr error
	}{
		{
			name: "Valid login",
			req: LoginRequest{
				Username: "logintest",
				Password: "password123",
			},
			wantErr: nil,
		},
		{
			name: "Invalid username",
			req: LoginRequest{
				Username: "nonexistent",
				Password: "password123",
			},
			wantErr: ErrInvalidCredentials,
		},
		{
			name: "Invalid password",
			req: LoginRequest{
				Username: "logintest",
				Password: "wrongpassword",
			},
			wantErr: ErrInvalidCredentials,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, user, err := service.Login(tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Login() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if tt.wantErr == nil {
				if token == "" {
					t.Error("Login() returned empty token for successful login")
				}
				if user == nil {
					t.Error("Login() returned nil user for successful login")
				}
				if user != nil && user.Username != tt.req.Username {
					t.Errorf("Login() got username = %v, want %v", user.Username, tt.req.Username)
				}
			}
		})
	}
}
