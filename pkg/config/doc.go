/*
Package config manages configuration parsing and validation for cmisexport.

	            +-------------+
	            |   Config    |
	            | (Settings)  |
	            +------+------+
	                   |
	      +------------+------------+
	      |            |            |
	+-----+----+ +-----+----+ +-----+----+
	|   YAML   | |   JSON   | |   HCL    |
	|  Parser  | |  Parser  | |  Parser  |
	+----------+ +----------+ +----------+

🎯 Purpose:
- Loads the repository connection and export settings
- Picks a parser from the file extension
- Fills defaults and rejects incomplete settings

🔄 Flow:
1. Load reads the file and parses it
2. The CLI overlays its flags
3. ApplyEnv fills credentials from CMIS_PASSWORD / CMIS_TOKEN
4. Validate normalizes paths and sets defaults

🔍 Example:

	cfg, err := config.Load(ctx, "export.yaml")
	if err != nil {
		return err
	}
	cfg.ApplyEnv()
	if err := cfg.Validate(); err != nil {
		return err
	}

HCL files may read secrets with env():

	repository {
	  url      = "https://cms.example.com/cmis/browser"
	  username = "admin"
	  password = env("CMIS_PASSWORD")
	}
	export {
	  path        = "/site/docs"
	  destination = "./out"
	}
*/
package config
