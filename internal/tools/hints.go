package tools

// installHints returns platform-specific install suggestions for tool.
func installHints(tool string) []string {
	switch tool {
	case "python":
		switch hostOS {
		case "darwin":
			return []string{"Install Python via Homebrew: brew install python@3.9"}
		case "linux":
			return []string{"Install Python with your distro package manager, e.g. sudo apt install python3 python3-venv"}
		case "windows":
			return []string{"Install Python via winget: winget install Python.Python.3.9"}
		default:
			return []string{"Install Python 3 using your platform's package manager"}
		}
	case "conda":
		return []string{"Re-run envsetup conda and accept the Miniconda install, or install Miniconda manually"}
	case "compiler":
		switch hostOS {
		case "darwin":
			return []string{"Install the Xcode command line tools: xcode-select --install"}
		case "linux":
			return []string{"Install a compiler toolchain, e.g. sudo apt install build-essential"}
		case "windows":
			return []string{"Install the Visual Studio Build Tools: winget install Microsoft.VisualStudio.2022.BuildTools"}
		default:
			return []string{"Install a C/C++ compiler using your platform's package manager"}
		}
	case "java":
		switch hostOS {
		case "darwin":
			return []string{"Install a JDK via Homebrew: brew install openjdk"}
		case "linux":
			return []string{"Install a JDK, e.g. sudo apt install default-jdk"}
		case "windows":
			return []string{"Install a JDK via winget: winget install Microsoft.OpenJDK.17"}
		default:
			return []string{"Install a Java runtime using your platform's package manager"}
		}
	}
	return nil
}
