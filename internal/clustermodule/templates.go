package clustermodule

import "embed"

//go:embed templates/install-spark.sh templates/spark-env.sh
var templatesFS embed.FS

func readTemplate(name string) (string, error) {
	data, err := templatesFS.ReadFile("templates/" + name)
	if err != nil {
		return "", err
	}
	return string(data), nil
}
