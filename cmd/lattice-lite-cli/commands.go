package main

import (
	"fmt"
	"os"
	"time"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/pkg/errors"
	"github.com/urfave/cli/v2"

	latticelite "github.com/BackendStack21/lattice-lite-go"
	"github.com/BackendStack21/lattice-lite-go/analysis"
	"github.com/BackendStack21/lattice-lite-go/core"
	"github.com/BackendStack21/lattice-lite-go/kem"
	"github.com/BackendStack21/lattice-lite-go/ring"
	"github.com/BackendStack21/lattice-lite-go/sampler"
	"github.com/BackendStack21/lattice-lite-go/utils"
)

const (
	seedFlag       = "seed"
	publicKeyFlag  = "public-key"
	secretKeyFlag  = "secret-key"
	ciphertextFlag = "ciphertext"
	trialsFlag     = "trials"
	htmlFlag       = "html"
	iterationsFlag = "iterations"
	pathFlag       = "path"
	forceFlag      = "force"
)

func seedCLIFlag() cli.Flag {
	return &cli.StringFlag{
		Name:  seedFlag,
		Usage: "hex seed (at least 32 bytes) for deterministic output",
	}
}

func commands() []*cli.Command {
	return []*cli.Command{
		{
			Name:   "keygen",
			Usage:  "Generate a key pair",
			Flags:  []cli.Flag{seedCLIFlag()},
			Action: action(keygen),
		},
		{
			Name:    "encapsulate",
			Aliases: []string{"encap"},
			Usage:   "Encapsulate to a public key",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: publicKeyFlag, Aliases: []string{"pk"}, Required: true, Usage: "keygen export or bare public key"},
				seedCLIFlag(),
			},
			Action: action(encapsulate),
		},
		{
			Name:    "decapsulate",
			Aliases: []string{"decap"},
			Usage:   "Derive the receiver-side secret",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: secretKeyFlag, Aliases: []string{"sk"}, Required: true, Usage: "keygen export or bare secret key"},
				&cli.StringFlag{Name: ciphertextFlag, Aliases: []string{"ct"}, Required: true, Usage: "encapsulate export or bare ciphertext"},
			},
			Action: action(decapsulate),
		},
		{
			Name:  "inspect",
			Usage: "Print the centered coefficients of a public key",
			Flags: []cli.Flag{
				&cli.StringFlag{Name: publicKeyFlag, Aliases: []string{"pk"}, Required: true},
			},
			Action: action(inspect),
		},
		{
			Name:  "agreement",
			Usage: "Measure how often both sides derive the same secret",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: trialsFlag, Aliases: []string{"n"}, Value: 1000},
				seedCLIFlag(),
				&cli.StringFlag{Name: htmlFlag, Usage: "write a residual histogram page to this file"},
			},
			Action: action(agreement),
		},
		{
			Name:  "benchmark",
			Usage: "Time key generation, encapsulation and decapsulation",
			Flags: []cli.Flag{
				&cli.IntFlag{Name: iterationsFlag, Aliases: []string{"n"}, Value: 1000},
			},
			Action: action(benchmark),
		},
		{
			Name:  "config",
			Usage: "Manage the config file",
			Subcommands: []*cli.Command{
				{
					Name:  "init",
					Usage: "Write the resolved parameters (or the defaults, if the current config is unusable) to a config file",
					Flags: []cli.Flag{
						&cli.StringFlag{Name: pathFlag, Value: core.DefaultConfigPath},
						&cli.BoolFlag{Name: forceFlag, Usage: "overwrite an existing file"},
					},
					Action: lenientAction(configInit),
				},
			},
		},
		{
			Name:  "version",
			Usage: "Print the version",
			Action: func(c *cli.Context) error {
				fmt.Fprintf(c.App.Writer, "%s version %s\n", appName, version)
				fmt.Fprintf(c.App.Writer, "lattice-lite library version %s\n", latticelite.Version)
				return nil
			},
		},
	}
}

func newKEM(env *runtimeEnv) (*kem.KEM, error) {
	s, err := sampler.New()
	if err != nil {
		return nil, err
	}
	return kem.New(env.params, s, kem.WithLogger(env.log))
}

// userSeed decodes --seed and warns about obviously weak values.
func userSeed(c *cli.Context, env *runtimeEnv) ([]byte, error) {
	if !c.IsSet(seedFlag) {
		return nil, nil
	}
	seed, err := decodeSeed(c.String(seedFlag))
	if err != nil {
		return nil, err
	}
	if err := utils.ValidateSeedEntropy(seed); err != nil {
		env.log.Warn().Err(err).Msg("Weak seed")
	}
	return seed, nil
}

func keygen(c *cli.Context, env *runtimeEnv) error {
	seed, err := userSeed(c, env)
	if err != nil {
		return err
	}

	var kp *latticelite.KeyPair
	if seed != nil {
		if kp, err = kem.GenerateKeyPairFromSeed(env.params, seed); err != nil {
			return err
		}
	} else {
		k, err := newKEM(env)
		if err != nil {
			return err
		}
		kp = k.GenerateKeyPair()
	}

	pk := kem.SerializePublicKey(&kp.PublicKey)
	sk := kem.SerializePrivateKey(&kp.PrivateKey)
	defer utils.Zeroize(sk)

	export := KeyPairExport{
		KeyID:     keyID(pk),
		Level:     string(env.params.Set),
		Format:    string(env.format),
		PublicKey: encodeBytes(pk, env.format),
		SecretKey: encodeBytes(sk, env.format),
		CreatedAt: time.Now().UTC().Format(time.RFC3339),
	}
	env.log.Info().Str("key_id", export.KeyID).Str("set", export.Level).Msg("Generated key pair")
	return writeJSON(c, export)
}

// checkLevel warns when an export was produced under another parameter set.
func checkLevel(env *runtimeEnv, doc map[string]string, what string) {
	if level, ok := doc["level"]; ok && level != string(env.params.Set) {
		env.log.Warn().Str("file_level", level).Str("level", string(env.params.Set)).Msgf("%s was produced with a different parameter set", what)
	}
}

func encapsulate(c *cli.Context, env *runtimeEnv) error {
	pkBytes, doc, err := loadField(c.String(publicKeyFlag), "public_key")
	if err != nil {
		return err
	}
	checkLevel(env, doc, "public key")
	pk, err := kem.DeserializePublicKey(pkBytes)
	if err != nil {
		return err
	}
	seed, err := userSeed(c, env)
	if err != nil {
		return err
	}

	var res *latticelite.EncapsulationResult
	if seed != nil {
		res, err = kem.EncapsulateDeterministic(env.params, pk, seed)
	} else {
		var k *kem.KEM
		if k, err = newKEM(env); err == nil {
			res, err = k.Encapsulate(pk)
		}
	}
	if err != nil {
		return err
	}
	defer utils.Zeroize(res.SharedSecret)

	return writeJSON(c, EncapsulationExport{
		KeyID:        keyID(pkBytes),
		Level:        string(env.params.Set),
		Format:       string(env.format),
		Ciphertext:   encodeBytes(kem.SerializeCiphertext(&res.Ciphertext), env.format),
		SharedSecret: encodeBytes(res.SharedSecret, env.format),
	})
}

func decapsulate(c *cli.Context, env *runtimeEnv) error {
	skBytes, doc, err := loadField(c.String(secretKeyFlag), "secret_key")
	if err != nil {
		return err
	}
	defer utils.Zeroize(skBytes)
	checkLevel(env, doc, "secret key")
	sk, err := kem.DeserializePrivateKey(skBytes)
	if err != nil {
		return err
	}
	defer utils.ZeroizePoly(&sk.S)

	ctBytes, ctDoc, err := loadField(c.String(ciphertextFlag), "ciphertext")
	if err != nil {
		return err
	}
	checkLevel(env, ctDoc, "ciphertext")
	ct, err := kem.DeserializeCiphertext(ctBytes)
	if err != nil {
		return err
	}

	ss, err := kem.Decapsulate(env.params, ct, sk)
	if err != nil {
		return err
	}
	defer utils.Zeroize(ss)
	return writeJSON(c, DecapsulationExport{
		Format:       string(env.format),
		SharedSecret: encodeBytes(ss, env.format),
	})
}

func inspect(c *cli.Context, env *runtimeEnv) error {
	pkBytes, _, err := loadField(c.String(publicKeyFlag), "public_key")
	if err != nil {
		return err
	}
	pk, err := kem.DeserializePublicKey(pkBytes)
	if err != nil {
		return err
	}
	return writeJSON(c, map[string]interface{}{
		"key_id": keyID(pkBytes),
		"n":      latticelite.N,
		"q":      latticelite.Q,
		"a":      ring.Centered(pk.A),
		"b":      ring.Centered(pk.B),
	})
}

func agreement(c *cli.Context, env *runtimeEnv) error {
	seed, err := userSeed(c, env)
	if err != nil {
		return err
	}
	trials := c.Int(trialsFlag)
	start := time.Now()
	rep, err := analysis.RunAgreementTrials(env.params, seed, trials)
	if err != nil {
		return err
	}
	env.log.Info().Int("trials", rep.Trials).Float64("rate", rep.Rate).Dur("elapsed", time.Since(start)).Msg("Agreement trials finished")

	if path := c.String(htmlFlag); path != "" {
		f, err := os.Create(path)
		if err != nil {
			return errors.Wrap(err, "creating html report")
		}
		if err := analysis.RenderHTML(f, rep); err != nil {
			f.Close()
			return err
		}
		if err := f.Close(); err != nil {
			return errors.Wrap(err, "closing html report")
		}
		env.log.Info().Str("path", path).Msg("Wrote histogram page")
	}
	return writeJSON(c, rep)
}

func benchmark(c *cli.Context, env *runtimeEnv) error {
	iterations := c.Int(iterationsFlag)
	if err := utils.CheckPositive(iterations, "iterations"); err != nil {
		return err
	}
	k, err := newKEM(env)
	if err != nil {
		return err
	}

	var keygenTotal, encapTotal, decapTotal time.Duration
	for i := 0; i < iterations; i++ {
		start := time.Now()
		kp := k.GenerateKeyPair()
		keygenTotal += time.Since(start)

		start = time.Now()
		res, err := k.Encapsulate(&kp.PublicKey)
		encapTotal += time.Since(start)
		if err != nil {
			return err
		}

		start = time.Now()
		_, err = k.Decapsulate(&res.Ciphertext, &kp.PrivateKey)
		decapTotal += time.Since(start)
		if err != nil {
			return err
		}
	}

	n := time.Duration(iterations)
	w := c.App.Writer
	fmt.Fprintf(w, "lattice-lite Benchmark Results\n")
	fmt.Fprintf(w, "==============================\n")
	fmt.Fprintf(w, "Parameter set: %s (noise bound %d, %s)\n", env.params.Set, env.params.NoiseBound, env.params.Hash)
	fmt.Fprintf(w, "Iterations: %d\n\n", iterations)
	fmt.Fprintf(w, "  KeyGen:      %v (avg)\n", keygenTotal/n)
	fmt.Fprintf(w, "  Encapsulate: %v (avg)\n", encapTotal/n)
	fmt.Fprintf(w, "  Decapsulate: %v (avg)\n", decapTotal/n)
	return nil
}

func configInit(c *cli.Context, env *runtimeEnv) error {
	path, err := homedir.Expand(c.String(pathFlag))
	if err != nil {
		return errors.WithStack(err)
	}
	if !c.Bool(forceFlag) {
		if _, err := os.Stat(path); err == nil {
			return errors.Errorf("%s exists; pass --force to overwrite", path)
		}
	}
	cfg := core.DefaultConfig()
	if env.paramsErr != nil {
		env.log.Warn().Err(env.paramsErr).Msg("Current config is unusable; writing defaults")
	} else {
		bound := env.params.NoiseBound
		cfg.Level = string(env.params.Set)
		cfg.NoiseBound = &bound
		cfg.Hash = env.params.Hash
		cfg.LogLevel = env.log.GetLevel().String()
	}
	if err := core.SaveConfig(path, cfg); err != nil {
		return err
	}
	env.log.Info().Str("path", path).Msg("Wrote config")
	return nil
}
