package main

import (
	"archive/tar"
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/mcc4mcc/mcc4mcc/internal/artifacts"
	"github.com/mcc4mcc/mcc4mcc/internal/dataset"
	"github.com/mcc4mcc/mcc4mcc/internal/modelinput"
	"github.com/mcc4mcc/mcc4mcc/internal/selection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	fixtureExam     = "ReachabilityDeadlock"
	fixtureInstance = "Philosophers-PT-000005"
)

const resultsFixture = "Year,Tool,Instance,Examination,Cores,Time OK,Memory OK,Results,Techniques,Memory,CPU Time,Clock Time,IO Time,Status,Id\n" +
	"2018,lola,Philosophers-PT-000005,ReachabilityDeadlock,4,True,True,T,EXPLICIT STUBBORN_SETS,100,10,10,0,normal,1\n" +
	"2018,tapaalPAR,Philosophers-PT-000005,ReachabilityDeadlock,4,True,True,T,EXPLICIT,200,20,20,0,normal,2\n" +
	"2018,lola,Philosophers-PT-000010,ReachabilityDeadlock,4,True,True,T,EXPLICIT,100,30,30,0,normal,3\n" +
	"2018,tapaalSEQ,Philosophers-PT-000010,ReachabilityDeadlock,4,False,True,DNF,,0,0,0,0,normal,4\n"

// characteristicsFixture describes the Philosophers model with every
// property true.
func characteristicsFixture() string {
	cells := make([]string, len(dataset.CharacteristicColumns))
	for i, c := range dataset.CharacteristicColumns {
		switch c {
		case "Id":
			cells[i] = "Philosophers"
		case "Type":
			cells[i] = "PT"
		case "Origin":
			cells[i] = "academic"
		case "Submitter":
			cells[i] = "someone"
		case "Year":
			cells[i] = "2016"
		default:
			cells[i] = "True"
		}
	}
	return "characteristics\n" + strings.Join(cells, ",") + "\n"
}

// fakeDockerScript answers image inspections and succeeds only for lola.
const fakeDockerScript = `#!/bin/sh
if [ "$1" = "image" ]; then
  echo sha256:0
  exit 0
fi
case "$*" in
  *BK_TOOL=lola*)
    echo "FORMULA Philosophers-PT-000005-ReachabilityDeadlock-0 TRUE"
    exit 0
    ;;
esac
exit 1
`

// setupProject creates a project directory with results, characteristics,
// one model archive and a configuration pointing at a fake docker, and
// makes it the working directory.
func setupProject(t *testing.T) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake docker is a shell script")
	}
	dir := t.TempDir()
	docker := filepath.Join(dir, "docker")
	require.NoError(t, os.WriteFile(docker, []byte(fakeDockerScript), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "results.csv"), []byte(resultsFixture), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "characteristics.csv"), []byte(characteristicsFixture()), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".mcc4mcc.yaml"), []byte("execution:\n  docker: "+docker+"\n"), 0o644))

	models := filepath.Join(dir, "models")
	require.NoError(t, os.MkdirAll(models, 0o755))
	writeModelArchive(t, filepath.Join(models, fixtureInstance+".tgz"), fixtureInstance)

	t.Chdir(dir)
	return dir
}

func writeModelArchive(t *testing.T, path, instance string) {
	t.Helper()
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	require.NoError(t, tw.WriteHeader(&tar.Header{Name: instance + "/", Typeflag: tar.TypeDir, Mode: 0o755}))
	body := []byte("<pnml/>")
	require.NoError(t, tw.WriteHeader(&tar.Header{
		Name:     instance + "/" + modelinput.DescriptorFile,
		Typeflag: tar.TypeReg,
		Mode:     0o644,
		Size:     int64(len(body)),
	}))
	_, err := tw.Write(body)
	require.NoError(t, err)
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))
}

// execRoot runs the root command with args and returns its standard output.
func execRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestExtract_WritesArtifacts(t *testing.T) {
	dir := setupProject(t)

	out, err := execRoot(t, "extract", "--data", dir)
	require.NoError(t, err)
	assert.Contains(t, out, fixtureExam)
	assert.Contains(t, out, "lola")

	prefix := artifacts.DefaultPrefix()
	for _, name := range []string{
		artifacts.KnownName(prefix),
		artifacts.LearnedName(prefix),
		artifacts.ValuesName(prefix),
		artifacts.PredictorName(prefix, "majority"),
		artifacts.PredictorName(prefix, "nearest"),
	} {
		assert.FileExists(t, filepath.Join(dir, name))
	}
}

func TestExtract_PrefixFollowsForgetAndExclude(t *testing.T) {
	dir := setupProject(t)

	_, err := execRoot(t, "extract", "--data", dir, "--forget", "Safe", "--exclude", "tapaalSEQ", "--export-db")
	require.NoError(t, err)

	prefix := artifacts.Fingerprint([]string{"Safe"}, []string{"tapaalSEQ"})
	assert.NotEqual(t, artifacts.DefaultPrefix(), prefix)
	assert.FileExists(t, filepath.Join(dir, artifacts.KnownName(prefix)))
	assert.NoFileExists(t, filepath.Join(dir, artifacts.KnownName(artifacts.DefaultPrefix())))
	assert.FileExists(t, filepath.Join(dir, ".mcc4mcc", "history.db"))
}

func TestExtract_MissingResults(t *testing.T) {
	dir := setupProject(t)

	_, err := execRoot(t, "extract", "--data", dir, "--results", "missing.csv")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "reading results")
	assert.Equal(t, ExitError, exitCode(err))
}

func TestRun_KnownPolicyAndHistory(t *testing.T) {
	dir := setupProject(t)
	t.Setenv(envExamination, fixtureExam)
	t.Setenv(envInput, "")
	t.Setenv(envTool, "mcc4mcc-cheat")

	_, err := execRoot(t, "extract", "--data", dir)
	require.NoError(t, err)

	out, err := execRoot(t, "run", "--data", dir, "--input", filepath.Join(dir, "models", fixtureInstance+".tgz"))
	require.NoError(t, err)
	assert.Contains(t, out, "FORMULA Philosophers-PT-000005-ReachabilityDeadlock-0 TRUE")

	out, err = execRoot(t, "history", "--data", dir)
	require.NoError(t, err)
	assert.Contains(t, out, fixtureInstance)
	assert.Contains(t, out, "success")
	assert.Contains(t, out, "lola")
}

func TestRun_ForcedToolFails(t *testing.T) {
	dir := setupProject(t)
	t.Setenv(envExamination, fixtureExam)
	t.Setenv(envInput, "")
	t.Setenv(envTool, "")

	_, err := execRoot(t, "run", "--data", dir, "--no-history", "--tool", "tapaal",
		"--input", filepath.Join(dir, "models", fixtureInstance+".tgz"))
	require.ErrorIs(t, err, selection.ErrCannotCompute)
	assert.Equal(t, ExitCannotCompute, exitCode(err))
}

func TestRun_UnknownModelDoesNotCompete(t *testing.T) {
	dir := setupProject(t)
	t.Setenv(envExamination, fixtureExam)
	t.Setenv(envInput, "")
	t.Setenv(envTool, "mcc4mcc-cheat")

	_, err := execRoot(t, "extract", "--data", dir)
	require.NoError(t, err)

	other := filepath.Join(t.TempDir(), "Referendum-PT-0010")
	require.NoError(t, os.MkdirAll(other, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(other, modelinput.DescriptorFile), []byte("<pnml/>"), 0o644))

	_, err = execRoot(t, "run", "--data", dir, "--input", other)
	require.Error(t, err)
	assert.Equal(t, ExitDoNotCompete, exitCode(err))
}

func TestSmokeTest_ReportsFailures(t *testing.T) {
	dir := setupProject(t)

	out, err := execRoot(t, "test", "--data", dir)
	require.Error(t, err)
	assert.Equal(t, ExitFailed, exitCode(err))
	assert.Contains(t, err.Error(), "1 of 2 smoke tests failed")
	assert.Contains(t, out, "passed")
	assert.Contains(t, out, "failed")

	_, err = execRoot(t, "test", "--data", dir, "--tool", "lola")
	require.NoError(t, err)
}

func TestHistory_Empty(t *testing.T) {
	dir := setupProject(t)

	out, err := execRoot(t, "history", "--data", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "No runs recorded.")

	_, err = execRoot(t, "history", "--data", dir, "--limit", "0")
	assert.ErrorContains(t, err, "invalid limit")
}
