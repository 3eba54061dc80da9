// Package binaries downloads and locates the executables a generated
// network runs.
package binaries

import (
	"fmt"
	"path/filepath"
	"runtime"

	"github.com/quorumengineering/quorum-wizard/network"
)

const (
	Quorum   = "quorum"
	Tessera  = "tessera"
	Cakeshop = "cakeshop"

	BinDirName = "bin"

	// TesseraJarEnv points to the tessera jar when the transaction manager
	// version is PATH.
	TesseraJarEnv = "TESSERA_JAR"
)

// Tool is one downloadable executable.
type Tool struct {
	Name    string
	Version string
	// BinaryName is the file stored in the cache.
	BinaryName string
	URL        string
	// Archived tools are .tar.gz files holding BinaryName.
	Archived bool
}

func (t Tool) String() string {
	return t.Name + "@" + t.Version
}

// CachePath is where [t] is stored below [cacheHome].
func (t Tool) CachePath(cacheHome string) string {
	return filepath.Join(cacheHome, BinDirName, t.Name, t.Version, t.BinaryName)
}

func QuorumTool(version string) Tool {
	return Tool{
		Name:       Quorum,
		Version:    version,
		BinaryName: "geth",
		URL: fmt.Sprintf("https://artifacts.consensys.net/public/go-quorum/raw/versions/v%s/geth_v%s_%s_%s.tar.gz",
			version, version, runtime.GOOS, runtime.GOARCH),
		Archived: true,
	}
}

func TesseraTool(version string) Tool {
	return Tool{
		Name:       Tessera,
		Version:    version,
		BinaryName: "tessera-app.jar",
		URL: fmt.Sprintf("https://oss.sonatype.org/service/local/repositories/releases/content/com/jpmorgan/quorum/tessera-app/%s/tessera-app-%s-app.jar",
			version, version),
	}
}

func CakeshopTool(version string) Tool {
	return Tool{
		Name:       Cakeshop,
		Version:    version,
		BinaryName: "cakeshop.war",
		URL:        fmt.Sprintf("https://github.com/jpmorganchase/cakeshop/releases/download/v%s/cakeshop-%s.war", version, version),
	}
}

// Required lists the tools [cfg] needs that are not taken from the user's
// environment.
func Required(cfg network.Config) []Tool {
	var tools []Tool
	if v := cfg.Network.QuorumVersion; v != network.PathVersion && v != "" {
		tools = append(tools, QuorumTool(v))
	}
	if v := cfg.Network.TransactionManager.Version(); v != "" {
		tools = append(tools, TesseraTool(v))
	}
	if v := cfg.Network.Cakeshop; v != network.NoCakeshop && v != "" {
		tools = append(tools, CakeshopTool(v))
	}
	return tools
}

// PathToQuorumBinary returns the geth executable of [version].
func PathToQuorumBinary(cacheHome, version string) string {
	if version == network.PathVersion {
		return "geth"
	}
	return QuorumTool(version).CachePath(cacheHome)
}

// PathToTesseraJar returns the tessera jar, or the shell reference to
// $TESSERA_JAR for PATH.
func PathToTesseraJar(cacheHome string, tm network.TransactionManager) string {
	if tm == network.PathTransactionManager {
		return "$" + TesseraJarEnv
	}
	return TesseraTool(string(tm)).CachePath(cacheHome)
}

func PathToCakeshop(cacheHome, version string) string {
	return CakeshopTool(version).CachePath(cacheHome)
}
