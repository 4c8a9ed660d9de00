package hdfs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"nodeagent/internal/command"
	appErr "nodeagent/pkg/errors"
)

const fakeHadoopScript = `#!/bin/sh
echo "$*" >> "%LOG%"
case "$1" in
version)
  echo "Hadoop 2.0.0-fake"
  exit 0
  ;;
fs)
  case "$2" in
  -test)
    case "$4" in
    /present|/data/foo|/garbage) exit 0 ;;
    /weird) echo "test: unexpected failure" >&2; exit 255 ;;
    *) exit 1 ;;
    esac
    ;;
  -du)
    case "$3" in
    /garbage)
      echo "du: something odd"
      exit 0
      ;;
    /slow)
      sleep 5
      exit 0
      ;;
    /present|/data/foo)
      echo "WARN util.NativeCodeLoader: Unable to load native-hadoop library"
      echo ""
      echo "15360  $3"
      exit 0
      ;;
    esac
    echo "du: Cannot access $3: No such file or directory." >&2
    exit 1
    ;;
  -rm)
    if [ "$3" = "/missing" ]; then
      echo "rm: /missing: No such file or directory." >&2
      exit 1
    fi
    echo "Deleted $3"
    exit 0
    ;;
  -copyFromLocal|-copyToLocal)
    exit 0
    ;;
  esac
  ;;
esac
exit 3
`

type fakeHadoop struct {
	binary string
	log    string
}

func newFakeHadoop(t *testing.T) fakeHadoop {
	t.Helper()
	dir := t.TempDir()
	log := filepath.Join(dir, "calls.log")
	binary := filepath.Join(dir, "hadoop")
	script := strings.ReplaceAll(fakeHadoopScript, "%LOG%", log)
	if err := os.WriteFile(binary, []byte(script), 0o755); err != nil {
		t.Fatalf("write fake hadoop failed: %v", err)
	}
	return fakeHadoop{binary: binary, log: log}
}

func (f fakeHadoop) calls(t *testing.T) []string {
	t.Helper()
	data, err := os.ReadFile(f.log)
	if err != nil {
		t.Fatalf("read call log failed: %v", err)
	}
	return strings.Split(strings.TrimSpace(string(data)), "\n")
}

func newTestClient(t *testing.T) (*Client, fakeHadoop) {
	t.Helper()
	fake := newFakeHadoop(t)
	client, err := New(context.Background(), Config{Binary: fake.binary}, command.NewRunner())
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	return client, fake
}

func TestNewProbesVersion(t *testing.T) {
	client, fake := newTestClient(t)
	if client.Binary() != fake.binary {
		t.Fatalf("unexpected binary: %s", client.Binary())
	}
	calls := fake.calls(t)
	if len(calls) != 1 || calls[0] != "version" {
		t.Fatalf("unexpected probe calls: %v", calls)
	}
}

func TestNewUsesHomeEnv(t *testing.T) {
	home := t.TempDir()
	if err := os.MkdirAll(filepath.Join(home, "bin"), 0o755); err != nil {
		t.Fatalf("mkdir failed: %v", err)
	}
	script := "#!/bin/sh\nexit 0\n"
	if err := os.WriteFile(filepath.Join(home, "bin", "hadoop"), []byte(script), 0o755); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	t.Setenv("NODEAGENT_TEST_HADOOP_HOME", home)

	client, err := New(context.Background(), Config{HomeEnv: "NODEAGENT_TEST_HADOOP_HOME"}, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if want := filepath.Join(home, "bin", "hadoop"); client.Binary() != want {
		t.Fatalf("unexpected binary: got=%s want=%s", client.Binary(), want)
	}
}

func TestNewFailsWhenToolUnavailable(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "hadoop")
	if err := os.WriteFile(broken, []byte("#!/bin/sh\necho broken >&2\nexit 1\n"), 0o755); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	for _, binary := range []string{broken, filepath.Join(dir, "does-not-exist")} {
		client, err := New(context.Background(), Config{Binary: binary}, nil)
		if err == nil || client != nil {
			t.Fatalf("expected failure for %s", binary)
		}
		if !appErr.Is(err, appErr.ToolUnavailable) {
			t.Fatalf("unexpected code for %s: %v", binary, appErr.GetCode(err))
		}
		if !strings.Contains(err.Error(), binary) {
			t.Fatalf("error should name the binary: %v", err)
		}
	}
}

func TestExists(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	ok, err := client.Exists(ctx, "/present")
	if err != nil || !ok {
		t.Fatalf("expected present: ok=%v err=%v", ok, err)
	}
	ok, err = client.Exists(ctx, "absent")
	if err != nil || ok {
		t.Fatalf("expected absent: ok=%v err=%v", ok, err)
	}
	_, err = client.Exists(ctx, "/weird")
	if !appErr.Is(err, appErr.UnexpectedExitStatus) {
		t.Fatalf("expected unexpected result error, got %v", err)
	}
	if !strings.Contains(err.Error(), "test: unexpected failure") {
		t.Fatalf("diagnostic should carry stderr: %v", err)
	}
}

func TestSize(t *testing.T) {
	client, fake := newTestClient(t)
	ctx := context.Background()

	size, err := client.Size(ctx, "data/foo")
	if err != nil {
		t.Fatalf("Size failed: %v", err)
	}
	if size != 15360 {
		t.Fatalf("unexpected size: %d", size)
	}
	calls := fake.calls(t)
	if last := calls[len(calls)-1]; last != "fs -du /data/foo" {
		t.Fatalf("unexpected invocation: %q", last)
	}

	_, err = client.Size(ctx, "/garbage")
	if !appErr.Is(err, appErr.UnexpectedOutputFormat) {
		t.Fatalf("expected output format error, got %v", err)
	}
	_, err = client.Size(ctx, "/missing")
	if !appErr.Is(err, appErr.UnexpectedExitStatus) {
		t.Fatalf("expected unexpected result error, got %v", err)
	}
}

func TestExistsAgreesWithSize(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()

	for _, p := range []string{"/present", "data/foo", "/absent", "missing", "/data/other"} {
		exists, err := client.Exists(ctx, p)
		if err != nil {
			t.Fatalf("Exists(%q) failed: %v", p, err)
		}
		_, sizeErr := client.Size(ctx, p)
		if exists != (sizeErr == nil) {
			t.Fatalf("path %q: exists=%v but size err=%v", p, exists, sizeErr)
		}
	}
}

func TestSizeBoundedByCallerDeadline(t *testing.T) {
	client, _ := newTestClient(t)
	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := client.Size(ctx, "/slow")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 3*time.Second {
		t.Fatalf("slow invocation was not killed: %v", elapsed)
	}
}

func TestDelete(t *testing.T) {
	client, _ := newTestClient(t)
	ctx := context.Background()
	if err := client.Delete(ctx, "/data/foo"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	err := client.Delete(ctx, "/missing")
	if !appErr.Is(err, appErr.UnexpectedExitStatus) {
		t.Fatalf("expected unexpected result error, got %v", err)
	}
}

func TestUploadLocal(t *testing.T) {
	client, fake := newTestClient(t)
	ctx := context.Background()

	before := len(fake.calls(t))
	missing := filepath.Join(t.TempDir(), "nope")
	err := client.UploadLocal(ctx, missing, "/data/nope")
	if !appErr.Is(err, appErr.LocalPreconditionFailed) {
		t.Fatalf("expected precondition error, got %v", err)
	}
	if err.Error() != "failed to find '"+missing+"'" {
		t.Fatalf("unexpected message: %v", err)
	}
	if got := len(fake.calls(t)); got != before {
		t.Fatalf("precondition failure must not spawn the client")
	}

	local := filepath.Join(t.TempDir(), "artifact.tar")
	if err := os.WriteFile(local, []byte("payload"), 0o644); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := client.UploadLocal(ctx, local, "data/artifact.tar"); err != nil {
		t.Fatalf("UploadLocal failed: %v", err)
	}
	calls := fake.calls(t)
	if len(calls) != before+1 {
		t.Fatalf("expected one more invocation: %v", calls)
	}
	if want := "fs -copyFromLocal " + local + " /data/artifact.tar"; calls[len(calls)-1] != want {
		t.Fatalf("unexpected invocation: got=%q want=%q", calls[len(calls)-1], want)
	}
}

func TestDownloadLocal(t *testing.T) {
	client, fake := newTestClient(t)
	local := filepath.Join(t.TempDir(), "out")
	if err := client.DownloadLocal(context.Background(), "hdfs://nn/a", local); err != nil {
		t.Fatalf("DownloadLocal failed: %v", err)
	}
	calls := fake.calls(t)
	if want := "fs -copyToLocal hdfs://nn/a " + local; calls[len(calls)-1] != want {
		t.Fatalf("unexpected invocation: got=%q want=%q", calls[len(calls)-1], want)
	}
}
