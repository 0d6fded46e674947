package renderer

// overlayShaderSource draws one screen-covering triangle sampling the overlay texture.
// Vertex indices 0, 1, 2 map to clip positions (-1,1), (3,1), (-1,-3); the visible part of the
// triangle is the viewport with UVs running 0..1 from the top-left corner.
const overlayShaderSource = `
struct VertexOutput {
    @builtin(position) position: vec4<f32>,
    @location(0) uv: vec2<f32>,
};

@group(0) @binding(0) var overlayTexture: texture_2d<f32>;
@group(0) @binding(1) var overlaySampler: sampler;

@vertex
fn vs_main(@builtin(vertex_index) index: u32) -> VertexOutput {
    let uv = vec2<f32>(f32((index << 1u) & 2u), f32(index & 2u));
    var out: VertexOutput;
    out.position = vec4<f32>(uv.x * 2.0 - 1.0, 1.0 - uv.y * 2.0, 0.0, 1.0);
    out.uv = uv;
    return out;
}

@fragment
fn fs_main(in: VertexOutput) -> @location(0) vec4<f32> {
    return textureSample(overlayTexture, overlaySampler, in.uv);
}
`
