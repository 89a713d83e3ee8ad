package systems

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/spaghettifunk/gridmesh/engine/assets"
	"github.com/spaghettifunk/gridmesh/engine/core"
	"github.com/spaghettifunk/gridmesh/engine/renderer"
	"github.com/spaghettifunk/gridmesh/engine/renderer/metadata"
)

/** @brief Configuration for the shader system. */
type ShaderSystemConfig struct {
	/** @brief The maximum number of programs held in the registry. */
	MaxShaderCount uint16
}

/**
 * @brief The shader registry. Maps names to linked programs and caches
 * uniform locations per program. Must only be used from the render thread.
 */
type ShaderSystem struct {
	// This system's configuration.
	Config *ShaderSystemConfig
	// A lookup table for shader name->shader
	Lookup map[string]*metadata.Shader
	// uniform locations per program handle, -1 included
	uniforms map[uint32]map[string]int32
	// sub systems
	assetManager *assets.AssetManager
	renderer     *renderer.Renderer
}

func NewShaderSystem(config *ShaderSystemConfig, am *assets.AssetManager, r *renderer.Renderer) (*ShaderSystem, error) {
	if config.MaxShaderCount == 0 {
		err := fmt.Errorf("func NewShaderSystem - config.MaxShaderCount must be > 0")
		core.LogError("%s", err)
		return nil, err
	}
	return &ShaderSystem{
		Config:       config,
		Lookup:       make(map[string]*metadata.Shader),
		uniforms:     make(map[uint32]map[string]int32),
		assetManager: am,
		renderer:     r,
	}, nil
}

/**
 * @brief Shuts down the shader system, deleting every registered program.
 */
func (ss *ShaderSystem) Shutdown() error {
	for _, name := range ss.Names() {
		if err := ss.Destroy(name); err != nil {
			return err
		}
	}
	return nil
}

/**
 * @brief Compiles both stages from source and links them into a program
 * registered under name. Stage objects are always deleted once linking has
 * been attempted. Compiling a name that already exists swaps the program only
 * when the new one links; otherwise the previous program stays registered.
 *
 * @param name The registry name.
 * @param vertexSource The vertex stage GLSL.
 * @param fragmentSource The fragment stage GLSL.
 * @return The registered shader, or a *core.ShaderCompileError / *core.ShaderLinkError.
 */
func (ss *ShaderSystem) Compile(name, vertexSource, fragmentSource string) (*metadata.Shader, error) {
	if name == "" {
		return nil, errors.New("shader name cannot be empty")
	}
	existing, replacing := ss.Lookup[name]
	if !replacing && len(ss.Lookup) >= int(ss.Config.MaxShaderCount) {
		err := fmt.Errorf("cannot register shader '%s' (%d registered): %w", name, len(ss.Lookup), core.ErrShaderRegistryFull)
		core.LogError("%s", err)
		return nil, err
	}

	program, err := ss.build(name, vertexSource, fragmentSource)
	if err != nil {
		core.LogError("%s", err)
		if replacing {
			core.LogWarn("keeping previous program %d for shader '%s'", existing.ID, name)
		}
		return nil, err
	}

	if replacing {
		ss.releaseProgram(existing.ID)
		existing.ID = program
		existing.State = metadata.ShaderStateInitialized
		existing.Generation++
		core.LogInfo("shader '%s' rebuilt as program %d (generation %d)", name, program, existing.Generation)
		return existing, nil
	}

	shader := &metadata.Shader{
		ID:    program,
		Name:  name,
		State: metadata.ShaderStateInitialized,
	}
	ss.Lookup[name] = shader
	core.LogDebug("shader '%s' registered as program %d", name, program)
	return shader, nil
}

/**
 * @brief Loads both stages through the asset manager and compiles them.
 * The paths are remembered so the shader can be reloaded.
 */
func (ss *ShaderSystem) CompileFiles(name, vertexPath, fragmentPath string) (*metadata.Shader, error) {
	vertexSource, err := ss.loadSource(vertexPath)
	if err != nil {
		return nil, err
	}
	fragmentSource, err := ss.loadSource(fragmentPath)
	if err != nil {
		return nil, err
	}
	shader, err := ss.Compile(name, vertexSource, fragmentSource)
	if err != nil {
		return nil, err
	}
	shader.VertexPath = filepath.Clean(vertexPath)
	shader.FragmentPath = filepath.Clean(fragmentPath)
	return shader, nil
}

func (ss *ShaderSystem) loadSource(path string) (string, error) {
	if ss.assetManager == nil {
		return "", fmt.Errorf("cannot load '%s': no asset manager", path)
	}
	res, err := ss.assetManager.LoadAsset(path, nil)
	if err != nil {
		err = fmt.Errorf("failed to load shader source: %w", err)
		core.LogError("%s", err)
		return "", err
	}
	source := res.String()
	if err := ss.assetManager.UnloadAsset(res); err != nil {
		core.LogWarn("failed to unload '%s': %s", path, err)
	}
	return source, nil
}

/**
 * @brief Recompiles a shader that was built from files.
 */
func (ss *ShaderSystem) Reload(name string) error {
	shader, err := ss.Get(name)
	if err != nil {
		return err
	}
	if !shader.FileBacked() {
		return fmt.Errorf("shader '%s' was not built from files and cannot be reloaded", name)
	}
	_, err = ss.CompileFiles(name, shader.VertexPath, shader.FragmentPath)
	return err
}

/**
 * @brief Reloads every shader with a stage read from path.
 *
 * @return The names that were reloaded and the errors of those that failed.
 */
func (ss *ShaderSystem) ReloadPath(path string) ([]string, error) {
	path = filepath.Clean(path)
	var reloaded []string
	var errs []error
	for _, name := range ss.Names() {
		shader := ss.Lookup[name]
		if shader.VertexPath != path && shader.FragmentPath != path {
			continue
		}
		if err := ss.Reload(name); err != nil {
			errs = append(errs, err)
			continue
		}
		reloaded = append(reloaded, name)
	}
	return reloaded, errors.Join(errs...)
}

/**
 * @brief Gets the program handle of a shader by name.
 *
 * @param name The name of the shader.
 * @return The program handle, or core.ErrShaderNotFound.
 */
func (ss *ShaderSystem) GetProgramID(name string) (uint32, error) {
	shader, err := ss.Get(name)
	if err != nil {
		return 0, err
	}
	return shader.ID, nil
}

func (ss *ShaderSystem) Get(name string) (*metadata.Shader, error) {
	shader, ok := ss.Lookup[name]
	if !ok {
		return nil, fmt.Errorf("shader '%s': %w", name, core.ErrShaderNotFound)
	}
	return shader, nil
}

/**
 * @brief Resolves a uniform of a linked program. Results, including misses,
 * are cached until the program is deleted.
 *
 * @return The location, or -1 together with a *core.UniformNotFoundError.
 */
func (ss *ShaderSystem) UniformLocation(programID uint32, name string) (int32, error) {
	cache, ok := ss.uniforms[programID]
	if !ok {
		cache = make(map[string]int32)
		ss.uniforms[programID] = cache
	}
	location, ok := cache[name]
	if !ok {
		location = ss.renderer.UniformLocation(programID, name)
		cache[name] = location
	}
	if location == -1 {
		return -1, &core.UniformNotFoundError{Program: programID, Name: name}
	}
	return location, nil
}

func (ss *ShaderSystem) Destroy(name string) error {
	shader, err := ss.Get(name)
	if err != nil {
		return err
	}
	ss.releaseProgram(shader.ID)
	shader.ID = 0
	shader.State = metadata.ShaderStateNotCreated
	delete(ss.Lookup, name)
	return nil
}

// Names returns the registered names in sorted order.
func (ss *ShaderSystem) Names() []string {
	names := make([]string, 0, len(ss.Lookup))
	for name := range ss.Lookup {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (ss *ShaderSystem) Count() int {
	return len(ss.Lookup)
}

func (ss *ShaderSystem) build(name, vertexSource, fragmentSource string) (uint32, error) {
	vertex, err := ss.compileStage(name, metadata.ShaderStageVertex, vertexSource)
	if err != nil {
		return 0, err
	}
	fragment, err := ss.compileStage(name, metadata.ShaderStageFragment, fragmentSource)
	if err != nil {
		ss.renderer.ShaderDestroy(vertex)
		return 0, err
	}

	program := ss.renderer.ProgramCreate()
	if program == 0 {
		ss.renderer.ShaderDestroy(vertex)
		ss.renderer.ShaderDestroy(fragment)
		return 0, fmt.Errorf("shader '%s': failed to create program object", name)
	}
	ss.renderer.ProgramAttach(program, vertex)
	ss.renderer.ProgramAttach(program, fragment)
	linked, log := ss.renderer.ProgramLink(program)

	// the program keeps what it needs; stage objects are no longer referenced
	ss.renderer.ShaderDestroy(vertex)
	ss.renderer.ShaderDestroy(fragment)

	if !linked {
		ss.renderer.ProgramDestroy(program)
		return 0, &core.ShaderLinkError{Name: name, Log: log}
	}
	return program, nil
}

func (ss *ShaderSystem) compileStage(name string, stage metadata.ShaderStage, source string) (uint32, error) {
	handle := ss.renderer.ShaderCreate(stage)
	if handle == 0 {
		return 0, fmt.Errorf("shader '%s': failed to create %s stage object", name, stage)
	}
	if ok, log := ss.renderer.ShaderCompile(handle, source); !ok {
		ss.renderer.ShaderDestroy(handle)
		return 0, &core.ShaderCompileError{Name: name, Stage: stage.String(), Log: log}
	}
	return handle, nil
}

func (ss *ShaderSystem) releaseProgram(program uint32) {
	if program == 0 {
		return
	}
	ss.renderer.ProgramDestroy(program)
	delete(ss.uniforms, program)
}
