package config // package config loads application configuration from environment variables

import (
	"log"     // log is used to report configuration errors and halt execution
	"os"      // os provides access to environment variables
	"strconv" // strconv converts strings to other types
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations
// and costs.
type Config struct {
	Env                string // application environment (e.g. "dev", "prod")
	Port               string // HTTP port to listen on
	DBUser             string // database username
	DBPass             string // database password (optional)
	DBHost             string // database host address
	DBPort             string // database port number
	DBName             string // database name
	JWTSecret          string // secret used to sign session tokens
	TokenTTLDays       int    // session token time-to-live in days
	BcryptCost         int    // bcrypt cost for password hashing
	EnvelopePassphrase string // passphrase the envelope key is derived from
	EnvelopeSalt       string // fixed KDF salt shared with clients
	KDFIterations      int    // PBKDF2 iteration count (must be >= 100000)
	AMQPURL            string // RabbitMQ URL for security events (optional)
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  The envelope
// passphrase is deliberately required from the environment: deriving the
// transport-encryption key from a constant baked into the binary would
// defeat the point of the key derivation step.
func Load() Config {
	return Config{
		Env:                must("APP_ENV"),
		Port:               must("APP_PORT"),
		DBUser:             must("DB_USER"),
		DBPass:             os.Getenv("DB_PASS"), // empty allowed
		DBHost:             must("DB_HOST"),
		DBPort:             must("DB_PORT"),
		DBName:             must("DB_NAME"),
		JWTSecret:          must("JWT_SECRET"),
		TokenTTLDays:       mustInt("TOKEN_TTL_DAYS"),
		BcryptCost:         mustInt("BCRYPT_COST"),
		EnvelopePassphrase: must("ENVELOPE_PASSPHRASE"),
		EnvelopeSalt:       must("ENVELOPE_SALT"),
		KDFIterations:      mustInt("KDF_ITERATIONS"),
		AMQPURL:            os.Getenv("RABBITMQ_URL"), // empty disables events
	}
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		log.Fatalf("missing required env var: %s", key)
	}
	return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
	s := must(key)
	n, err := strconv.Atoi(s)
	if err != nil {
		log.Fatalf("invalid int for %s: %q", key, s)
	}
	return n
}
