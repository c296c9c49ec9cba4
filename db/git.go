package db

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-billy/v6/memfs"
	"github.com/go-git/go-git/v6"
	"github.com/go-git/go-git/v6/plumbing"
	"github.com/go-git/go-git/v6/plumbing/transport"
	"github.com/go-git/go-git/v6/plumbing/transport/http"
	"github.com/go-git/go-git/v6/plumbing/transport/ssh"
	"github.com/go-git/go-git/v6/storage/memory"
)

type GitAuthType string

const (
	GitAuthNone  GitAuthType = "none"
	GitAuthToken GitAuthType = "token"
	GitAuthSSH   GitAuthType = "ssh"
	GitAuthBasic GitAuthType = "basic"
)

// GitAuth holds the credentials used to clone git+ sources.
type GitAuth struct {
	Type       GitAuthType
	Token      string // token auth
	KeyPath    string // SSH key, defaults to ~/.ssh/id_rsa
	Passphrase string
	Username   string // basic auth
	Password   string
}

func (auth *GitAuth) method() (transport.AuthMethod, error) {
	if auth == nil {
		return nil, nil
	}

	switch auth.Type {
	case GitAuthNone, "":
		return nil, nil
	case GitAuthToken:
		// any non-empty username works with tokens
		return &http.BasicAuth{Username: "git", Password: auth.Token}, nil
	case GitAuthSSH:
		keyPath := auth.KeyPath
		if keyPath == "" {
			home, _ := os.UserHomeDir()
			keyPath = filepath.Join(home, ".ssh", "id_rsa")
		}
		return ssh.NewPublicKeysFromFile("git", keyPath, auth.Passphrase)
	case GitAuthBasic:
		return &http.BasicAuth{Username: auth.Username, Password: auth.Password}, nil
	default:
		return nil, fmt.Errorf("unknown git auth type: %s", auth.Type)
	}
}

// gitSource is a parsed git+<repo>#<path>[@<branch>] location.
type gitSource struct {
	Repository string
	Path       string
	Branch     string
}

func parseGitURL(url string) (gitSource, error) {
	rest := url[len("git+"):]
	hash := strings.LastIndex(rest, "#")
	if hash < 0 {
		return gitSource{}, fmt.Errorf("invalid git URL %s: missing #<path>", url)
	}

	source := gitSource{Repository: rest[:hash], Path: rest[hash+1:]}
	if at := strings.LastIndex(source.Path, "@"); at >= 0 {
		source.Path, source.Branch = source.Path[:at], source.Path[at+1:]
	}
	source.Path = strings.TrimPrefix(source.Path, "/")
	if source.Repository == "" || source.Path == "" {
		return gitSource{}, fmt.Errorf("invalid git URL %s", url)
	}
	return source, nil
}

// isNetworkRepository reports whether the repository is reached over a
// network transport, where a shallow clone is worthwhile.
func isNetworkRepository(url string) bool {
	lower := strings.ToLower(url)
	for _, prefix := range []string{"http://", "https://", "ssh://", "git://", "git@"} {
		if strings.HasPrefix(lower, prefix) {
			return true
		}
	}
	return false
}

// openGitReader clones the repository into memory and opens one file of its
// worktree.
func openGitReader(ctx context.Context, url string, auth *GitAuth) (io.ReadCloser, error) {
	source, err := parseGitURL(url)
	if err != nil {
		return nil, err
	}

	method, err := auth.method()
	if err != nil {
		return nil, fmt.Errorf("failed to configure auth: %w", err)
	}

	options := &git.CloneOptions{
		URL:  source.Repository,
		Auth: method,
	}
	if source.Branch != "" {
		options.ReferenceName = plumbing.NewBranchReferenceName(source.Branch)
		options.SingleBranch = true
	}
	if isNetworkRepository(source.Repository) {
		options.Depth = 1
	}

	worktree := memfs.New()
	if _, err := git.CloneContext(ctx, memory.NewStorage(), worktree, options); err != nil {
		return nil, fmt.Errorf("failed to clone %s: %w", source.Repository, err)
	}

	file, err := worktree.Open(source.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s in %s: %w", source.Path, source.Repository, err)
	}
	return file, nil
}
