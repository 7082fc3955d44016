package types

type Shell string

const (
	ShellBash       Shell = "bash"
	ShellCsh        Shell = "csh"
	ShellPowerShell Shell = "powershell"
	ShellCmd        Shell = "cmd"
)

type FilterOp string

const (
	FilterOpLte FilterOp = "<="
	FilterOpLt  FilterOp = "<"
	FilterOpGte FilterOp = ">="
	FilterOpGt  FilterOp = ">"
	FilterOpEq  FilterOp = "=="
	FilterOpNe  FilterOp = "!="
)

// Named hooks a manifest entry may declare. Anything else is a manifest error.
const (
	InstallScriptBuildFastcomp         = "build_fastcomp"
	InstallScriptBuildLLVMMonorepo     = "build_llvm_monorepo"
	InstallScriptEmscriptenPostInstall = "emscripten_post_install"
	InstallScriptEmscriptenNPMInstall  = "emscripten_npm_install"
	InstallScriptBuildBinaryen         = "build_binaryen"

	UninstallScriptOptimizer = "uninstall_optimizer"
	UninstallScriptBinaryen  = "uninstall_binaryen"

	IsInstalledScriptOptimizer = "is_optimizer_installed"
	IsInstalledScriptBinaryen  = "is_binaryen_installed"
)

const (
	OSWindows = "windows"
	OSLinux   = "linux"
	OSDarwin  = "darwin"
)

const (
	ArchX8664   = "x86_64"
	ArchX86     = "x86"
	ArchAArch64 = "aarch64"
	ArchARM     = "arm"
)

// SDKID is the family id shared by every SDK entry.
const SDKID = "sdk"
