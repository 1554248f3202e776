package config

import (
	"os"
	"path/filepath"
)

// Files used for mutual TLS and access control. They live in $CONFIG_DIR,
// or ~/.bank when it is unset.
var (
	// generated certificate authority
	CAFile = configFile("ca.pem")
	// Server certificate and key
	ServerCertFile = configFile("server.pem")
	ServerKeyFile  = configFile("server-key.pem")
	// client certificate for operators allowed to do everything
	RootClientCertFile = configFile("root-client.pem")
	RootClientKeyFile  = configFile("root-client-key.pem")
	// client certificate for read-only audit access
	AuditorClientCertFile = configFile("auditor-client.pem")
	AuditorClientKeyFile  = configFile("auditor-client-key.pem")
	// access control lists
	ACLModelFile  = configFile("model.conf")
	ACLPolicyFile = configFile("policy.csv")
)

func configFile(filename string) string {
	dir := os.Getenv("CONFIG_DIR")
	if dir != "" {
		return filepath.Join(dir, filename)
	}

	homeDir, err := os.UserHomeDir()
	if err != nil {
		panic(err)
	}

	return filepath.Join(homeDir, ".bank", filename)
}
