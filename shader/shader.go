// Package shader holds the built-in GLSL sources for the lit, textured
// mesh pipeline the scene renderer drives.
package shader

import "fmt"

// ────────────────────────────────── Vertex ──────────────────────────────────

const vertexBody = `
layout (location = 0) in vec3 aPos;
layout (location = 1) in vec3 aNormal;
layout (location = 2) in vec2 aTexCoords;

out vec3 FragPos;
out vec3 Normal;
out vec2 TexCoords;

uniform mat4 model;
uniform mat4 view;
uniform mat4 projection;

void main() {
    FragPos = vec3(model * vec4(aPos, 1.0));
    Normal = mat3(transpose(inverse(model))) * aNormal;
    TexCoords = aTexCoords;
    gl_Position = projection * view * vec4(FragPos, 1.0);
}
`

// ───────────────────────────────── Fragment ─────────────────────────────────

// Phong lighting with a single point light, modulated by texture_0.
const fragmentBody = `
out vec4 FragColor;

in vec3 FragPos;
in vec3 Normal;
in vec2 TexCoords;

struct Light {
    vec3 position;
    vec3 ambient;
    vec3 diffuse;
    vec3 specular;
};

struct Material {
    vec3 ambient;
    vec3 diffuse;
    vec3 specular;
    float shininess;
};

uniform sampler2D texture_0;
uniform vec3 viewPos;
uniform Material material;
uniform Light light;

void main() {
    vec3 ambient = light.ambient * material.ambient;

    vec3 norm = normalize(Normal);
    vec3 lightDir = normalize(light.position - FragPos);
    float diff = max(dot(norm, lightDir), 0.0);
    vec3 diffuse = light.diffuse * (diff * material.diffuse);

    vec3 viewDir = normalize(viewPos - FragPos);
    vec3 reflectDir = reflect(-lightDir, norm);
    float spec = pow(max(dot(viewDir, reflectDir), 0.0), material.shininess);
    vec3 specular = light.specular * (spec * material.specular);

    vec3 result = (ambient + diffuse + specular) * texture(texture_0, TexCoords).rgb;
    FragColor = vec4(result, 1.0);
}
`

const esPrecision = `precision highp float;
precision highp int;
`

// versionLine returns the #version directive for a desktop core context.
func versionLine(major, minor int) string {
	if major > 4 || (major == 4 && minor >= 1) {
		return "#version 410 core\n"
	}
	if major == 3 && minor >= 3 || major == 4 {
		return fmt.Sprintf("#version %d%d0 core\n", major, minor)
	}
	return "#version 330 core\n"
}

// VertexSource returns the vertex stage for a desktop context of the given version.
func VertexSource(major, minor int) string {
	return versionLine(major, minor) + vertexBody
}

// FragmentSource returns the fragment stage for a desktop context of the given version.
func FragmentSource(major, minor int) string {
	return versionLine(major, minor) + fragmentBody
}

// VertexSourceES is the GLSL ES 3.0 form, for translation through the
// shader translator.
func VertexSourceES() string {
	return "#version 300 es\n" + esPrecision + vertexBody
}

func FragmentSourceES() string {
	return "#version 300 es\n" + esPrecision + fragmentBody
}
