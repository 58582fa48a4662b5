package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

const (
	KeyAPIURL    = "api_url"
	KeyToken     = "token"
	KeyJWTSecret = "jwt_secret"
	KeyStoreURL  = "store_url"
	KeyDBName    = "db_name"

	defaultAPIURL = "http://localhost:3000"
	tokenFileName = ".bdayctl_token"
)

func init() {
	viper.SetEnvPrefix("BDAY")
	viper.AutomaticEnv()
	viper.SetDefault(KeyAPIURL, defaultAPIURL)
	viper.SetDefault(KeyDBName, "getStatus")
	_ = viper.BindEnv(KeyJWTSecret, "BDAY_JWT_SECRET", "JWT_SECRET")
	_ = viper.BindEnv(KeyStoreURL, "BDAY_STORE_URL", "STORE_URL")
	_ = viper.BindEnv(KeyDBName, "BDAY_DB_NAME", "DB_NAME")
}

// APIURL returns the service base URL without a trailing slash.
func APIURL() string {
	return strings.TrimRight(viper.GetString(KeyAPIURL), "/")
}

// Token returns the flag or environment token, falling back to the one saved by "bdayctl token --save".
func Token() string {
	if t := viper.GetString(KeyToken); t != "" {
		return t
	}
	t, _ := LoadToken()
	return t
}

func JWTSecret() string {
	return viper.GetString(KeyJWTSecret)
}

func StoreURL() string {
	return viper.GetString(KeyStoreURL)
}

func DBName() string {
	return viper.GetString(KeyDBName)
}

func tokenPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, tokenFileName), nil
}

// SaveToken stores the token in the user's home directory, readable only by them.
func SaveToken(token string) error {
	path, err := tokenPath()
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(token), 0o600)
}

func LoadToken() (string, error) {
	path, err := tokenPath()
	if err != nil {
		return "", err
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(string(b)), nil
}
